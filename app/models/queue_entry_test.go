package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitTimeRecomputedOnRead(t *testing.T) {
	e := QueueEntry{
		Status:    QueueStatusWaiting,
		CreatedAt: time.Now().UTC().Add(-90 * time.Second),
	}
	assert.InDelta(t, 90, e.WaitTime(time.Now().UTC()), 1)
}

func TestWaitTimeStopsAtTerminalTransition(t *testing.T) {
	created := time.Now().UTC().Add(-10 * time.Minute)

	matched := QueueEntry{
		Status:    QueueStatusMatched,
		CreatedAt: created,
		MatchedAt: created.Add(30 * time.Second),
	}
	assert.Equal(t, 30, matched.WaitTime(time.Now().UTC()))

	left := QueueEntry{
		Status:    QueueStatusLeft,
		CreatedAt: created,
		LeftAt:    created.Add(45 * time.Second),
	}
	assert.Equal(t, 45, left.WaitTime(time.Now().UTC()))
}

func TestStatusViewHidesClaimedState(t *testing.T) {
	e := QueueEntry{
		ID:        "e1",
		UserID:    "user1",
		Status:    QueueStatusClaimed,
		CreatedAt: time.Now().UTC(),
	}

	view := NewQueueStatusResponse(&e, time.Now().UTC())
	assert.True(t, view.InQueue)
	assert.Equal(t, QueueStatusWaiting, view.Status)
}

func TestJoinRequestValidation(t *testing.T) {
	valid := JoinQueueRequest{UserID: "u1", Username: "alice", SkillLevel: SkillBeginner}
	assert.NoError(t, valid.Validate())

	missingUser := valid
	missingUser.UserID = ""
	assert.Error(t, missingUser.Validate())

	missingName := valid
	missingName.Username = ""
	assert.Error(t, missingName.Validate())

	badSkill := valid
	badSkill.SkillLevel = "grandmaster"
	assert.Error(t, badSkill.Validate())
}

func TestAvoids(t *testing.T) {
	e := QueueEntry{AvoidOpponents: []string{"u2", "u3"}}
	assert.True(t, e.Avoids("u2"))
	assert.False(t, e.Avoids("u4"))
}
