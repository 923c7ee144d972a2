package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"bansync/internal/models"

	"github.com/bwmarrin/discordgo"
)

// fakeStore is an in-memory SettingsStore for tests.
type fakeStore struct {
	mu       sync.Mutex
	settings map[string]models.GuildSettings
	exempt   map[string]map[string]bool // guildID -> userID -> exempt
	fetchErr map[string]error           // per-guild settings failures
	fetches  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: make(map[string]models.GuildSettings),
		exempt:   make(map[string]map[string]bool),
		fetchErr: make(map[string]error),
	}
}

func (f *fakeStore) GetOrCreateSettings(_ context.Context, guildID string) (models.GuildSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if err := f.fetchErr[guildID]; err != nil {
		return models.GuildSettings{}, err
	}
	if s, ok := f.settings[guildID]; ok {
		return s, nil
	}
	s := models.GuildSettings{GuildID: guildID}
	f.settings[guildID] = s
	return s, nil
}

func (f *fakeStore) IsExempt(_ context.Context, guildID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exempt[guildID][userID], nil
}

func (f *fakeStore) setSettings(s models.GuildSettings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[s.GuildID] = s
}

func (f *fakeStore) setExempt(guildID, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exempt[guildID] == nil {
		f.exempt[guildID] = make(map[string]bool)
	}
	f.exempt[guildID][userID] = true
}

type banCall struct {
	GuildID    string
	UserID     string
	DeleteDays int
	Reason     string
}

type postedMessage struct {
	ChannelID string
	Msg       *discordgo.MessageSend
}

// fakeGateway records every outbound platform call.
type fakeGateway struct {
	mu       sync.Mutex
	names    map[string]string // guildID -> name
	tags     map[string]string // userID -> tag
	bans     []banCall
	unbans   []banCall
	messages []postedMessage
}

func newFakeGateway(names map[string]string) *fakeGateway {
	return &fakeGateway{
		names: names,
		tags:  make(map[string]string),
	}
}

func (f *fakeGateway) GuildIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.names))
	for id := range f.names {
		ids = append(ids, id)
	}
	return ids
}

func (f *fakeGateway) GuildName(guildID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.names[guildID]
	return name, ok
}

func (f *fakeGateway) UserTag(userID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tag, ok := f.tags[userID]
	return tag, ok
}

func (f *fakeGateway) ApplyBan(_ context.Context, guildID, userID string, deleteMessageDays int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bans = append(f.bans, banCall{GuildID: guildID, UserID: userID, DeleteDays: deleteMessageDays, Reason: reason})
	return nil
}

func (f *fakeGateway) RemoveBan(_ context.Context, guildID, userID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unbans = append(f.unbans, banCall{GuildID: guildID, UserID: userID, Reason: reason})
	return nil
}

func (f *fakeGateway) PostMessage(_ context.Context, channelID string, msg *discordgo.MessageSend) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, postedMessage{ChannelID: channelID, Msg: msg})
	return nil
}

func (f *fakeGateway) banCalls() []banCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]banCall(nil), f.bans...)
}

func (f *fakeGateway) unbanCalls() []banCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]banCall(nil), f.unbans...)
}

func (f *fakeGateway) posted() []postedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]postedMessage(nil), f.messages...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string {
	return &s
}
