package domain

import (
	"fmt"
	"sync"
)

// Zone is a traffic placement that accrues spend independently inside a
// campaign.
type Zone struct {
	ID         int64 `json:"id"`
	CampaignID int64 `json:"campaign_id"`
}

// ListMode selects the campaign zone list a mutation targets.
type ListMode string

const (
	ListWhitelist ListMode = "whitelist"
	ListBlacklist ListMode = "blacklist"
)

// Membership is the state of a zone on one campaign. It is a single value,
// so a zone can never be whitelisted and blacklisted on the same campaign.
type Membership uint8

const (
	Neutral Membership = iota
	Whitelisted
	Blacklisted
)

func (m Membership) String() string {
	switch m {
	case Whitelisted:
		return "whitelisted"
	case Blacklisted:
		return "blacklisted"
	default:
		return "neutral"
	}
}

// MembershipFor maps a list mode to the membership it produces.
func MembershipFor(mode ListMode) (Membership, error) {
	switch mode {
	case ListWhitelist:
		return Whitelisted, nil
	case ListBlacklist:
		return Blacklisted, nil
	}
	return Neutral, fmt.Errorf("unknown list mode %q", mode)
}

// ZoneKey scopes membership to a (campaign, zone) pair.
type ZoneKey struct {
	CampaignID int64
	ZoneID     int64
}

// MembershipBook tracks membership per (campaign, zone) pair as observed by
// this process, e.g. after confirmed zone list mutations. Absent pairs are
// Neutral. It is safe for concurrent use.
type MembershipBook struct {
	mu      sync.RWMutex
	entries map[ZoneKey]Membership
}

// NewMembershipBook returns an empty book.
func NewMembershipBook() *MembershipBook {
	return &MembershipBook{entries: make(map[ZoneKey]Membership)}
}

// Get returns the membership of the pair.
func (b *MembershipBook) Get(key ZoneKey) Membership {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.entries[key]
}

// Set replaces the membership of the pair. Setting Neutral removes it.
func (b *MembershipBook) Set(key ZoneKey, m Membership) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m == Neutral {
		delete(b.entries, key)
		return
	}
	b.entries[key] = m
}

// Campaign returns the non-neutral memberships recorded for a campaign.
func (b *MembershipBook) Campaign(campaignID int64) map[int64]Membership {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[int64]Membership)
	for k, m := range b.entries {
		if k.CampaignID == campaignID {
			out[k.ZoneID] = m
		}
	}
	return out
}
