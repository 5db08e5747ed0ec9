package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adpilot/internal/core/domain"
	"adpilot/internal/core/port"
	"adpilot/internal/core/port/mocks"
)

func TestLogRecorderWritesEveryAction(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogRecorder(slog.New(slog.NewJSONHandler(&buf, nil)))

	actions := []domain.Action{
		{Seq: 1, Kind: domain.ActionBlacklist, Source: domain.SourceRule, Rule: "underperformance",
			Target: domain.EntityRef{Type: domain.EntityZone, ID: 7, CampaignID: 3}, Status: domain.StatusApplied},
		{Seq: 2, Kind: domain.ActionBlacklist, Source: domain.SourceRule, Rule: "underperformance",
			Target: domain.EntityRef{Type: domain.EntityZone, ID: 8, CampaignID: 3}, Status: domain.StatusFailed, Error: "boom"},
	}
	require.NoError(t, r.Record(context.Background(), "tok", actions))

	out := buf.String()
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
	assert.Contains(t, out, `"entity":"zone:7"`)
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"error":"boom"`)
}

func TestTeeJoinsErrors(t *testing.T) {
	failing := mocks.NewMockAuditRecorder(t)
	failing.EXPECT().Record(mock.Anything, "tok", mock.Anything).Return(errors.New("db down"))
	ok := mocks.NewMockAuditRecorder(t)
	ok.EXPECT().Record(mock.Anything, "tok", mock.Anything).Return(nil)

	err := Tee{failing, ok}.Record(context.Background(), "tok", nil)
	assert.EqualError(t, err, "db down")

	var _ port.AuditRecorder = Tee{}
}
