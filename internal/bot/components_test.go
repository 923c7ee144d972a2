package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestDisplayedReason(t *testing.T) {
	msg := &discordgo.Message{
		Embeds: []*discordgo.MessageEmbed{
			{
				Fields: []*discordgo.MessageEmbedField{
					{Name: "Reason", Value: "spam"},
				},
			},
		},
	}
	assert.Equal(t, "spam", displayedReason(msg))
}

func TestDisplayedReason_Missing(t *testing.T) {
	assert.Empty(t, displayedReason(nil))
	assert.Empty(t, displayedReason(&discordgo.Message{}))
	assert.Empty(t, displayedReason(&discordgo.Message{
		Embeds: []*discordgo.MessageEmbed{{
			Fields: []*discordgo.MessageEmbedField{{Name: "Other", Value: "x"}},
		}},
	}))
}
