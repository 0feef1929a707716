// Package storetest provides an in-memory store.Store for tests.
package storetest

import (
	"context"
	"sort"
	"sync"

	"github.com/groblegark/mindful/internal/model"
	"github.com/groblegark/mindful/internal/store"
)

type channelPair struct {
	guild, channel int64
}

// MemStore is an in-memory store.Store with simple error injection.
type MemStore struct {
	mu            sync.Mutex
	channels      map[channelPair]bool
	verifications map[int64]*model.UserVerification

	// Err, when set, fails every call with it.
	Err error
	// SetPendingErr fails only SetPending.
	SetPendingErr error
	// CompleteErr fails only CompleteVerification.
	CompleteErr error
	// ClearStaleErr fails only ClearStale.
	ClearStaleErr error
}

// Compile-time check that MemStore implements store.Store.
var _ store.Store = (*MemStore)(nil)

// New returns an empty in-memory store.
func New() *MemStore {
	return &MemStore{
		channels:      make(map[channelPair]bool),
		verifications: make(map[int64]*model.UserVerification),
	}
}

func (m *MemStore) AddGatedChannel(_ context.Context, guildID, channelID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.channels[channelPair{guildID, channelID}] = true
	return nil
}

func (m *MemStore) RemoveGatedChannel(_ context.Context, guildID, channelID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	key := channelPair{guildID, channelID}
	if !m.channels[key] {
		return false, nil
	}
	delete(m.channels, key)
	return true, nil
}

func (m *MemStore) ListGatedChannels(_ context.Context, guildID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var ids []int64
	for k := range m.channels {
		if k.guild == guildID {
			ids = append(ids, k.channel)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MemStore) ListAllGatedChannels(_ context.Context) ([]*model.GatedChannel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*model.GatedChannel
	for k := range m.channels {
		out = append(out, &model.GatedChannel{GuildID: k.guild, ChannelID: k.channel})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GuildID != out[j].GuildID {
			return out[i].GuildID < out[j].GuildID
		}
		return out[i].ChannelID < out[j].ChannelID
	})
	return out, nil
}

func (m *MemStore) ReplaceGatedChannels(_ context.Context, guildID int64, channelIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for k := range m.channels {
		if k.guild == guildID {
			delete(m.channels, k)
		}
	}
	for _, id := range channelIDs {
		m.channels[channelPair{guildID, id}] = true
	}
	return nil
}

func (m *MemStore) GetVerification(_ context.Context, userID int64) (*model.UserVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	v, ok := m.verifications[userID]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (m *MemStore) SetPending(_ context.Context, userID int64, day model.Date, affirmation string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.SetPendingErr != nil {
		return m.SetPendingErr
	}
	m.verifications[userID] = &model.UserVerification{
		UserID:             userID,
		VerifiedDate:       day,
		PendingAffirmation: affirmation,
	}
	return nil
}

func (m *MemStore) CompleteVerification(_ context.Context, userID int64, day model.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.CompleteErr != nil {
		return m.CompleteErr
	}
	if v, ok := m.verifications[userID]; ok {
		v.VerifiedDate = day
		v.PendingAffirmation = ""
	}
	return nil
}

func (m *MemStore) DeleteVerification(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	delete(m.verifications, userID)
	return nil
}

func (m *MemStore) ClearStale(_ context.Context, today model.Date) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	if m.ClearStaleErr != nil {
		return 0, m.ClearStaleErr
	}
	var cleared int64
	for id, v := range m.verifications {
		if v.VerifiedDate != today {
			delete(m.verifications, id)
			cleared++
		}
	}
	return cleared, nil
}

func (m *MemStore) ListVerifications(_ context.Context) ([]*model.UserVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []*model.UserVerification
	for _, v := range m.verifications {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *MemStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *MemStore) Close() error {
	return nil
}
