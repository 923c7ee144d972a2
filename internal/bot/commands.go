package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const (
	colorOK   = 0x00FF00
	colorFail = 0xFF0000
)

var adminPermission = int64(discordgo.PermissionAdministrator)

var notifyChannelTypes = []discordgo.ChannelType{
	discordgo.ChannelTypeGuildText,
	discordgo.ChannelTypeGuildNews,
}

func settingsCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:                     "settings",
		Description:              "Ban sync settings",
		DefaultMemberPermissions: &adminPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "ban-enabled",
				Description: "Sets whether bans will be synced with this guild",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "is-enabled",
						Description: "Whether ban sync is enabled",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "unban-enabled",
				Description: "Sets whether unbans will be synced with this guild",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "is-enabled",
						Description: "Whether unban sync is enabled",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "ban-notifications",
				Description: "Sets the channel to post ban notifications to",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "channel",
						Description:  "Channel to post notifications to. Leave empty to disable",
						ChannelTypes: notifyChannelTypes,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "unban-notifications",
				Description: "Sets the channel to post unban notifications to",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionChannel,
						Name:         "channel",
						Description:  "Channel to post notifications to. Leave empty to disable",
						ChannelTypes: notifyChannelTypes,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "get-settings",
				Description: "Get settings for this guild",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Name:        "exemption",
				Description: "Exemption commands",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "add",
						Description: "Exempt a user from being banned by ban sync",
						Options: []*discordgo.ApplicationCommandOption{
							{
								Type:        discordgo.ApplicationCommandOptionUser,
								Name:        "user",
								Description: "User to exempt",
								Required:    true,
							},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "remove",
						Description: "Remove exemption from a user",
						Options: []*discordgo.ApplicationCommandOption{
							{
								Type:        discordgo.ApplicationCommandOptionUser,
								Name:        "user",
								Description: "User to stop exempting",
								Required:    true,
							},
						},
					},
				},
			},
		},
	}
}

func (b *Bot) registerCommands() error {
	cmd := settingsCommand()
	if _, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, "", cmd); err != nil {
		return fmt.Errorf("failed to register command /%s: %w", cmd.Name, err)
	}
	b.logger.Info("Registered command", "name", cmd.Name)
	return nil
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != "settings" || i.GuildID == "" {
		return
	}

	ctx := context.Background()
	sub := data.Options[0]

	switch sub.Name {
	case "ban-enabled":
		enabled := sub.Options[0].BoolValue()
		if err := b.store.SetBanSyncEnabled(ctx, i.GuildID, enabled); err != nil {
			b.commandError(s, i, err)
			return
		}
		b.respondEmbed(s, i, toggleColor(enabled),
			fmt.Sprintf("Ban sync in this guild is now `%s`", enabledWord(enabled)), false)

	case "unban-enabled":
		enabled := sub.Options[0].BoolValue()
		if err := b.store.SetUnbanSyncEnabled(ctx, i.GuildID, enabled); err != nil {
			b.commandError(s, i, err)
			return
		}
		b.respondEmbed(s, i, toggleColor(enabled),
			fmt.Sprintf("Unban sync in this guild is now `%s`", enabledWord(enabled)), false)

	case "ban-notifications":
		channelID := optionalChannelID(sub)
		if err := b.store.SetBanNotifyChannel(ctx, i.GuildID, channelID); err != nil {
			b.commandError(s, i, err)
			return
		}
		if channelID != nil {
			b.respondEmbed(s, i, colorOK,
				fmt.Sprintf("Ban sync notifications channel is now set to <#%s>", *channelID), false)
		} else {
			b.respondEmbed(s, i, colorOK, "Ban sync notifications are now disabled", false)
		}

	case "unban-notifications":
		channelID := optionalChannelID(sub)
		if err := b.store.SetUnbanNotifyChannel(ctx, i.GuildID, channelID); err != nil {
			b.commandError(s, i, err)
			return
		}
		if channelID != nil {
			b.respondEmbed(s, i, colorOK,
				fmt.Sprintf("Unban notifications channel is now set to <#%s>", *channelID), false)
		} else {
			b.respondEmbed(s, i, colorOK, "Unban notifications are now disabled", false)
		}

	case "get-settings":
		b.handleGetSettings(ctx, s, i)

	case "exemption":
		b.handleExemption(ctx, s, i, sub)
	}
}

func (b *Bot) handleGetSettings(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	settings, err := b.store.GetOrCreateSettings(ctx, i.GuildID)
	if err != nil {
		b.commandError(s, i, err)
		return
	}

	embed := &discordgo.MessageEmbed{
		Color: colorOK,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Ban Sync", Value: enabledField(settings.BanSyncEnabled), Inline: true},
			{Name: "Unban Sync", Value: enabledField(settings.UnbanSyncEnabled), Inline: true},
			{Name: "Notifications Channel", Value: channelField(settings.BanNotifyChannelID), Inline: true},
			{Name: "Unban Notifications Channel", Value: channelField(settings.UnbanNotifyChannelID), Inline: true},
		},
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
	if err != nil {
		b.logger.Error("Failed to respond to get-settings", "guild_id", i.GuildID, "error", err)
	}
}

func (b *Bot) handleExemption(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, group *discordgo.ApplicationCommandInteractionDataOption) {
	sub := group.Options[0]
	user := sub.Options[0].UserValue(nil)

	switch sub.Name {
	case "add":
		created, err := b.store.AddExemption(ctx, i.GuildID, user.ID)
		if err != nil {
			b.commandError(s, i, err)
			return
		}
		if !created {
			b.respondText(s, i, "This user is already exempted", true)
			return
		}
		b.respondText(s, i, fmt.Sprintf("User <@%s> is now exempted.", user.ID), true)

	case "remove":
		removed, err := b.store.RemoveExemption(ctx, i.GuildID, user.ID)
		if err != nil {
			b.commandError(s, i, err)
			return
		}
		if !removed {
			b.respondText(s, i, "This user is not exempted", true)
			return
		}
		b.respondText(s, i, fmt.Sprintf("User <@%s> is not exempted anymore.", user.ID), true)
	}
}

func (b *Bot) commandError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	b.logger.Error("Settings command failed", "guild_id", i.GuildID, "error", err)
	b.respondEmbed(s, i, colorFail, "Something went wrong, try again later.", true)
}

func (b *Bot) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, color int, description string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{Color: color, Description: description}},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Error("Failed to send command response", "guild_id", i.GuildID, "error", err)
	}
}

func (b *Bot) respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Error("Failed to send command response", "guild_id", i.GuildID, "error", err)
	}
}

func optionalChannelID(sub *discordgo.ApplicationCommandInteractionDataOption) *string {
	if len(sub.Options) == 0 {
		return nil
	}
	ch := sub.Options[0].ChannelValue(nil)
	if ch == nil {
		return nil
	}
	return &ch.ID
}

func toggleColor(enabled bool) int {
	if enabled {
		return colorOK
	}
	return colorFail
}

func enabledWord(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func enabledField(enabled bool) string {
	if enabled {
		return "`Enabled`"
	}
	return "`Disabled`"
}

func channelField(channelID *string) string {
	if channelID == nil {
		return "`Disabled`"
	}
	return fmt.Sprintf("<#%s>", *channelID)
}
