package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/chess-memory/internal/game/room"
	"github.com/palemoky/chess-memory/internal/game/tiles"
	"github.com/palemoky/chess-memory/internal/protocol"
	"github.com/palemoky/chess-memory/internal/server/storage"
)

func TestIdentityRoundTrip(t *testing.T) {
	t.Parallel()

	original := protocol.Identity{Name: "alice", Avatar: "cat", AvatarOrientation: "left", AvatarColor: "#fff"}
	assert.Equal(t, original, IdentityToProto(IdentityToRoom(original)))
}

func TestSnapshotToRoomInfo(t *testing.T) {
	t.Parallel()

	s := room.NewTestSession(room.Timed(90 * time.Second))
	snap := s.Snapshot()

	info := SnapshotToRoomInfo(snap, false)
	assert.Equal(t, "TEST01", info.RoomID)
	assert.Equal(t, "timed", info.RoomType)
	assert.Equal(t, 90, info.Duration)
	assert.Equal(t, "ready", info.State)
	require.Len(t, info.Players, 2)
	assert.Equal(t, "bob", info.Players[1].Name)
	assert.Equal(t, int64(90000), info.Players[1].Remaining)
	assert.Nil(t, info.Deck)

	withDeck := SnapshotToRoomInfo(snap, true)
	assert.Len(t, withDeck.Deck, tiles.DeckSize)

	players := SnapshotToPlayerInfo(snap)
	require.NotNil(t, players.Player1)
	require.NotNil(t, players.Player2)
	assert.Equal(t, "alice", players.Player1.Name)
}

func TestSnapshotToPlayerInfo_EmptySeat(t *testing.T) {
	t.Parallel()

	s, err := room.NewSession("R1", room.Casual(), room.PlayerInput{ConnID: "p1"})
	require.NoError(t, err)

	players := SnapshotToPlayerInfo(s.Snapshot())
	assert.NotNil(t, players.Player1)
	assert.Nil(t, players.Player2)
}

func TestMaskDeck(t *testing.T) {
	t.Parallel()

	deck := []string{"wq_", "", "BP", "x_"}
	assert.Equal(t, []string{"wq", "", HiddenTile, "x"}, MaskDeck(deck, []int{0, 3}))
	assert.Equal(t, []string{HiddenTile, "", HiddenTile, HiddenTile}, MaskDeck(deck, nil))
}

func TestTurnAndResult(t *testing.T) {
	t.Parallel()

	turn := TurnToPayload(room.TurnInfo{Holder: "p1", Count: 3, Times: [room.Seats]time.Duration{time.Second, 2 * time.Second}})
	assert.Equal(t, protocol.TurnPayload{Holder: "p1", TurnCount: 3, Times: protocol.PlayerTimes{P1: 1000, P2: 2000}}, turn)

	over := ResultToGameOver(&room.Result{Reason: room.ReasonForfeit, Winner: "p2", WinnerName: "bob", WinnerRole: "black"})
	assert.Equal(t, "forfeit", over.Reason)
	assert.Equal(t, "bob", over.WinnerName)
}

func TestLeaderboardToProto(t *testing.T) {
	t.Parallel()

	entries := LeaderboardToProto([]storage.LeaderboardEntry{
		{Rank: 1, Stats: storage.PlayerStats{PlayerName: "alice", TotalGames: 4, Wins: 3, Losses: 1, Score: 50}},
	})
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].PlayerName)
	assert.InDelta(t, 75.0, entries[0].WinRate, 0.001)
}

func TestUpgradesToProto(t *testing.T) {
	t.Parallel()

	out := UpgradesToProto([]tiles.Upgrade{{Index: 4, Label: "wq"}})
	assert.Equal(t, []protocol.TileUpgrade{{Index: 4, Label: "wq"}}, out)
	assert.Empty(t, UpgradesToProto(nil))
}
