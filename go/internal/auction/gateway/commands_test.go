package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionroom/go/internal/auction/orchestrator"
)

func TestDecodeCommand(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want orchestrator.Msg
	}{
		{
			name: "create room",
			raw:  `{"type":"createRoom","data":{"displayName":"alice"}}`,
			want: orchestrator.CreateRoom{ConnectionID: "c1", DisplayName: "alice"},
		},
		{
			name: "join room",
			raw:  `{"type":"joinRoom","data":{"roomId":"ABC234","displayName":"bob"}}`,
			want: orchestrator.JoinRoom{RoomID: "ABC234", ConnectionID: "c1", DisplayName: "bob"},
		},
		{
			name: "select affiliation",
			raw:  `{"type":"selectAffiliation","data":{"roomId":"ABC234","name":"Mumbai Indians"}}`,
			want: orchestrator.SelectAffiliation{RoomID: "ABC234", ConnectionID: "c1", Name: "Mumbai Indians"},
		},
		{
			name: "start game",
			raw:  `{"type":"startGame","data":{"roomId":"ABC234"}}`,
			want: orchestrator.StartGame{RoomID: "ABC234", ConnectionID: "c1"},
		},
		{
			name: "place bid",
			raw:  `{"type":"placeBid","data":{"roomId":"ABC234","amount":2.75}}`,
			want: orchestrator.PlaceBid{RoomID: "ABC234", ConnectionID: "c1", Amount: 2.75},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := decodeCommand("c1", []byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeCommand_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
		text string
	}{
		{"not json", `hello`, ErrMalformedCommand, "Malformed command"},
		{"missing data", `{"type":"createRoom"}`, ErrMalformedCommand, "Malformed command"},
		{"wrong field type", `{"type":"placeBid","data":{"roomId":"ABC234","amount":"lots"}}`, ErrMalformedCommand, "Malformed command"},
		{"unknown type", `{"type":"kickPlayer","data":{}}`, ErrUnknownCommand, "Unknown command"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeCommand("c1", []byte(tc.raw))
			require.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.text, commandErrorText(err))
		})
	}
}
