package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/core/coretest"
	"github.com/genudine/ps2-discord-room-bot/internal/core/mock"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

func newGuild() *coretest.Gateway {
	gw := coretest.NewGateway()
	gw.AddCategory("1", "50")
	gw.AddVoice("1", "50", "100")
	return gw
}

func TestCreateRoomInTriggerCategory(t *testing.T) {
	gw := newGuild()
	gw.Join("5", "100")

	room, err := NewRoomCreator(gw).Create(context.Background(), "1", "100", "5", "Alice")
	require.NoError(t, err)

	require.Len(t, gw.Created, 1)
	assert.Equal(t, room, gw.Created[0].ID)
	assert.Equal(t, domain.ChannelID("50"), gw.Created[0].ParentID)
	assert.Equal(t, "Alice's room", gw.Created[0].Name)
	assert.Equal(t, []coretest.Move{{User: "5", Channel: room}}, gw.Moves)
}

func TestCreateSkipsStaleEvent(t *testing.T) {
	gw := newGuild()
	gw.AddVoice("1", "50", "101")
	gw.Join("5", "101")

	_, err := NewRoomCreator(gw).Create(context.Background(), "1", "100", "5", "Alice")
	assert.ErrorIs(t, err, core.ErrNotInTrigger)
	assert.Empty(t, gw.Created)
}

func TestCreateRequiresCategory(t *testing.T) {
	gw := coretest.NewGateway()
	gw.AddVoice("1", "", "100")
	gw.Join("5", "100")

	_, err := NewRoomCreator(gw).Create(context.Background(), "1", "100", "5", "Alice")
	var ce *core.CreateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, core.StageFetchTrigger, ce.Stage)
	assert.ErrorIs(t, err, core.ErrNoCategory)
	assert.Empty(t, gw.Created)
}

func TestCreateMoveFailureLeavesOrphan(t *testing.T) {
	gw := newGuild()
	gw.Join("5", "100")
	gw.MoveErr = errors.New("missing permissions")

	room, err := NewRoomCreator(gw).Create(context.Background(), "1", "100", "5", "Alice")
	var ce *core.CreateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, core.StageMove, ce.Stage)
	assert.NotEmpty(t, room)
	assert.True(t, gw.Has(room))

	// The orphan is empty, so the next prune reclaims it.
	report, err := NewRoomPruner(gw, 0).Prune(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, []domain.ChannelID{room}, report.Deleted)
}

func TestCreateErrorStages(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name  string
		setup func(gw *mock.MockGatewayMockRecorder)
		stage core.CreateStage
	}{
		{
			name: "voice state",
			setup: func(gw *mock.MockGatewayMockRecorder) {
				gw.CurrentChannel(gomock.Any(), domain.GuildID("1"), domain.UserID("5")).Return(domain.ChannelID(""), boom)
			},
			stage: core.StageVoiceState,
		},
		{
			name: "fetch trigger",
			setup: func(gw *mock.MockGatewayMockRecorder) {
				gw.CurrentChannel(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ChannelID("100"), nil)
				gw.Channel(gomock.Any(), domain.ChannelID("100")).Return(nil, boom)
			},
			stage: core.StageFetchTrigger,
		},
		{
			name: "create",
			setup: func(gw *mock.MockGatewayMockRecorder) {
				gw.CurrentChannel(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ChannelID("100"), nil)
				gw.Channel(gomock.Any(), domain.ChannelID("100")).
					Return(&domain.Channel{ID: "100", Kind: domain.KindVoice, ParentID: "50"}, nil)
				gw.CreateVoiceChannel(gomock.Any(), domain.GuildID("1"), domain.ChannelID("50"), "Bob's room").
					Return(domain.ChannelID(""), boom)
			},
			stage: core.StageCreate,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			gw := mock.NewMockGateway(ctrl)
			tc.setup(gw.EXPECT())

			_, err := NewRoomCreator(gw).Create(context.Background(), "1", "100", "5", "Bob")
			var ce *core.CreateError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.stage, ce.Stage)
			assert.ErrorIs(t, err, boom)
		})
	}
}
