package royalur

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrCorruptState = errors.New("corrupt game state")

// GameState is the serializable form of a Game. It carries every piece
// location so a session store can round-trip a running match exactly.
type GameState struct {
	CurrentPlayer Player       `json:"current_player"`
	Dice          int          `json:"dice_result"`
	GameOver      bool         `json:"game_over"`
	Winner        Player       `json:"winner,omitempty"`
	Pieces        []PieceState `json:"pieces"`
}

type PieceState struct {
	Owner    Player    `json:"owner"`
	ID       int       `json:"id"`
	Location string    `json:"location"`
	Position *Position `json:"position,omitempty"`
}

func (that *Game) State() *GameState {
	state := &GameState{
		CurrentPlayer: that.current,
		Dice:          that.dice,
		GameOver:      that.over,
		Winner:        that.winner,
		Pieces:        make([]PieceState, 0, 2*PiecesPerPlayer),
	}

	for _, player := range []Player{PlayerOne, PlayerTwo} {
		for _, piece := range that.board.Pieces(player) {
			pieceState := PieceState{
				Owner:    player,
				ID:       piece.id,
				Location: piece.location.Kind(),
			}
			if pos, ok := piece.location.Square(); ok {
				square := pos
				pieceState.Position = &square
			}
			state.Pieces = append(state.Pieces, pieceState)
		}
	}

	return state
}

// FromState rebuilds a game from its serialized form, validating it
// against the board geometry so a corrupted store cannot produce an
// impossible position. The restored game uses the default dice roller;
// callers that need determinism re-inject one with SetDiceRoller.
func FromState(state *GameState) (*Game, error) {
	if !state.CurrentPlayer.Valid() {
		return nil, fmt.Errorf("%w: current player %d", ErrCorruptState, state.CurrentPlayer)
	}
	if state.Dice < 0 || state.Dice > DiceCount {
		return nil, fmt.Errorf("%w: dice result %d", ErrCorruptState, state.Dice)
	}
	if state.GameOver != state.Winner.Valid() {
		return nil, fmt.Errorf("%w: game over %t with winner %q", ErrCorruptState, state.GameOver, state.Winner)
	}
	if len(state.Pieces) != 2*PiecesPerPlayer {
		return nil, fmt.Errorf("%w: %d pieces", ErrCorruptState, len(state.Pieces))
	}

	game := NewGame()
	game.current = state.CurrentPlayer
	game.dice = state.Dice
	game.over = state.GameOver
	game.winner = state.Winner

	type pieceKey struct {
		owner Player
		id    int
	}
	seen := make(map[pieceKey]bool, 2*PiecesPerPlayer)

	for _, pieceState := range state.Pieces {
		piece := game.board.Piece(pieceState.Owner, pieceState.ID)
		if piece == nil {
			return nil, fmt.Errorf("%w: unknown piece %d of %s", ErrCorruptState, pieceState.ID, pieceState.Owner)
		}

		key := pieceKey{owner: pieceState.Owner, id: pieceState.ID}
		if seen[key] {
			return nil, fmt.Errorf("%w: piece %d of %s listed twice", ErrCorruptState, pieceState.ID, pieceState.Owner)
		}
		seen[key] = true

		switch pieceState.Location {
		case LocationInHand:
			// pieces start in hand
		case LocationCompleted:
			piece.location = Completed()
		case LocationOnBoard:
			if err := game.board.restorePiece(piece, pieceState.Position); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: location %q", ErrCorruptState, pieceState.Location)
		}
	}

	return game, nil
}

// restorePiece places a stored piece back on the board, rejecting
// squares that do not exist, are off the owner's path, or are taken.
func (that *Board) restorePiece(piece *Piece, pos *Position) error {
	if pos == nil {
		return fmt.Errorf("%w: piece %d of %s is on board without a position", ErrCorruptState, piece.id, piece.owner)
	}
	if _, ok := that.squares[*pos]; !ok {
		return fmt.Errorf("%w: square %s does not exist", ErrCorruptState, *pos)
	}

	onPath := false
	for _, square := range PathFor(piece.owner) {
		if square == *pos {
			onPath = true
			break
		}
	}
	if !onPath {
		return fmt.Errorf("%w: square %s is off %s's path", ErrCorruptState, *pos, piece.owner)
	}

	if that.occupied[*pos] != nil {
		return fmt.Errorf("%w: square %s is occupied twice", ErrCorruptState, *pos)
	}

	that.occupied[*pos] = piece
	piece.location = OnSquare(*pos)

	return nil
}

// MarshalJSON stores the full game state, so an entity holding a *Game
// serializes naturally.
func (that *Game) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(that.State())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state: %w", err)
	}
	return data, nil
}

func (that *Game) UnmarshalJSON(data []byte) error {
	var state GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to unmarshal game state: %w", err)
	}

	restored, err := FromState(&state)
	if err != nil {
		return err
	}

	*that = *restored

	return nil
}
