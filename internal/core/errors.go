package core

import (
	"errors"
	"fmt"

	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNoCategory   = errors.New("channel has no parent category")
	ErrNotCategory  = errors.New("parent is not a category")
	ErrNotInTrigger = errors.New("user is no longer in the trigger channel")
)

// ConfigError is a malformed watch entry. Fatal at startup.
type ConfigError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("config: bad value %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("config: %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// LookupError means a channel, category or guild could not be resolved.
// It aborts the operation in progress.
type LookupError struct {
	Op  string
	ID  domain.ChannelID
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

type CreateStage string

const (
	StageVoiceState   CreateStage = "voice_state"
	StageFetchTrigger CreateStage = "fetch_trigger"
	StageCreate       CreateStage = "create_channel"
	StageMove         CreateStage = "move_member"
)

// CreateError aborts room creation for one event. The user stays in the
// trigger channel.
type CreateError struct {
	Stage CreateStage
	Err   error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("create room (%s): %v", e.Stage, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// DeleteError is a failure on a single prune candidate. It never aborts
// the rest of the sweep.
type DeleteError struct {
	ChannelID domain.ChannelID
	Err       error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete channel %s: %v", e.ChannelID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
