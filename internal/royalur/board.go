package royalur

import (
	"errors"
	"fmt"
)

const (
	BoardRows = 3
	BoardCols = 8

	PiecesPerPlayer = 7

	// PathLength is the number of squares each player walks. Landing
	// exactly one step past the last square bears the piece off.
	PathLength = 14
)

var ErrPieceNotOnBoard = errors.New("piece is not on any board square")

// Position is a physical square of the 3x8 grid. Row 1 is the shared
// middle row, row 0 belongs to player two and row 2 to player one.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (that Position) String() string {
	return fmt.Sprintf("(%d,%d)", that.Row, that.Col)
}

// Square is one fixed cell of the board. Occupancy lives on the Board,
// not here, so squares never change after construction.
type Square struct {
	Pos     Position
	Rosette bool
	Shared  bool
}

var rosettes = map[Position]bool{
	{Row: 0, Col: 0}: true,
	{Row: 2, Col: 0}: true,
	{Row: 1, Col: 3}: true,
	{Row: 0, Col: 6}: true,
	{Row: 2, Col: 6}: true,
}

// The board is H-shaped: columns 4 and 5 of the private rows do not
// exist, leaving 20 playable squares out of the 3x8 grid.
var playerOnePath = [PathLength]Position{
	{Row: 2, Col: 3}, {Row: 2, Col: 2}, {Row: 2, Col: 1}, {Row: 2, Col: 0},
	{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 1, Col: 3},
	{Row: 1, Col: 4}, {Row: 1, Col: 5}, {Row: 1, Col: 6}, {Row: 1, Col: 7},
	{Row: 2, Col: 7}, {Row: 2, Col: 6},
}

var playerTwoPath = [PathLength]Position{
	{Row: 0, Col: 3}, {Row: 0, Col: 2}, {Row: 0, Col: 1}, {Row: 0, Col: 0},
	{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 1, Col: 3},
	{Row: 1, Col: 4}, {Row: 1, Col: 5}, {Row: 1, Col: 6}, {Row: 1, Col: 7},
	{Row: 0, Col: 7}, {Row: 0, Col: 6},
}

// Exists reports whether pos is one of the 20 playable squares.
func Exists(pos Position) bool {
	if pos.Row < 0 || pos.Row >= BoardRows || pos.Col < 0 || pos.Col >= BoardCols {
		return false
	}
	if pos.Row == 1 {
		return true
	}
	return pos.Col <= 3 || pos.Col >= 6
}

func IsRosette(pos Position) bool {
	return rosettes[pos]
}

// PathFor returns the 14-square walking order of a player: four private
// entry squares, the shared middle row, and two private exit squares.
func PathFor(player Player) []Position {
	switch player {
	case PlayerOne:
		path := playerOnePath
		return path[:]
	case PlayerTwo:
		path := playerTwoPath
		return path[:]
	default:
		return nil
	}
}

// Board holds the squares, both players' pieces and a single occupancy
// index keyed by position. Piece locations and the occupancy index are
// only mutated together, inside MovePiece.
type Board struct {
	squares  map[Position]Square
	pieces   map[Player][]*Piece
	occupied map[Position]*Piece
}

func NewBoard() *Board {
	board := &Board{
		squares:  make(map[Position]Square, 20),
		pieces:   make(map[Player][]*Piece, 2),
		occupied: make(map[Position]*Piece, 20),
	}

	for row := 0; row < BoardRows; row++ {
		for col := 0; col < BoardCols; col++ {
			pos := Position{Row: row, Col: col}
			if !Exists(pos) {
				continue
			}
			board.squares[pos] = Square{Pos: pos, Rosette: IsRosette(pos), Shared: row == 1}
		}
	}

	for _, player := range []Player{PlayerOne, PlayerTwo} {
		pieces := make([]*Piece, 0, PiecesPerPlayer)
		for id := 1; id <= PiecesPerPlayer; id++ {
			pieces = append(pieces, &Piece{owner: player, id: id, location: InHand()})
		}
		board.pieces[player] = pieces
	}

	return board
}

// Square returns the fixed cell at pos, if it exists.
func (that *Board) Square(pos Position) (Square, bool) {
	square, ok := that.squares[pos]
	return square, ok
}

// OccupantAt returns the piece standing on pos, or nil.
func (that *Board) OccupantAt(pos Position) *Piece {
	return that.occupied[pos]
}

// Pieces returns a player's seven pieces in id order.
func (that *Board) Pieces(player Player) []*Piece {
	return that.pieces[player]
}

// Piece returns a player's piece by id, or nil for an unknown id.
func (that *Board) Piece(player Player, id int) *Piece {
	if id < 1 || id > PiecesPerPlayer {
		return nil
	}
	pieces, ok := that.pieces[player]
	if !ok {
		return nil
	}
	return pieces[id-1]
}

func (that *Board) PiecesInHand(player Player) int {
	count := 0
	for _, piece := range that.pieces[player] {
		if piece.location.IsInHand() {
			count++
		}
	}
	return count
}

func (that *Board) CompletedCount(player Player) int {
	count := 0
	for _, piece := range that.pieces[player] {
		if piece.location.IsCompleted() {
			count++
		}
	}
	return count
}

// LogicalIndex translates a piece's physical square into its 0-based
// position along the owner's path.
func (that *Board) LogicalIndex(piece *Piece) (int, error) {
	pos, ok := piece.location.Square()
	if !ok {
		return 0, ErrPieceNotOnBoard
	}

	for i, square := range PathFor(piece.owner) {
		if square == pos {
			return i, nil
		}
	}

	return 0, fmt.Errorf("square %s is off %s's path", pos, piece.owner)
}

// IsLegalMove reports whether piece may advance by steps. It never
// mutates anything.
func (that *Board) IsLegalMove(piece *Piece, steps int) bool {
	if piece == nil || steps <= 0 || steps > DiceCount {
		return false
	}

	path := PathFor(piece.owner)

	switch {
	case piece.location.IsInHand():
		return that.canLand(piece.owner, path[steps-1])
	case piece.location.IsOnBoard():
		index, err := that.LogicalIndex(piece)
		if err != nil {
			return false
		}

		newIndex := index + steps
		if newIndex > PathLength {
			// bearing off needs an exact landing
			return false
		}
		if newIndex == PathLength {
			return true
		}

		return that.canLand(piece.owner, path[newIndex])
	default:
		return false
	}
}

// canLand reports whether owner may finish a move on pos. An enemy
// piece blocks the square unless it can be captured, which is only
// possible on the shared row and never on a rosette.
func (that *Board) canLand(owner Player, pos Position) bool {
	occupant := that.occupied[pos]
	if occupant == nil {
		return true
	}
	if occupant.owner == owner {
		return false
	}

	square := that.squares[pos]
	return square.Shared && !square.Rosette
}

// MovePiece applies a move that IsLegalMove already allowed and reports
// whether the mover earned a bonus turn. A capture sends the enemy
// piece back to its owner's hand; an exact landing past the last path
// square bears the piece off, which never grants a bonus turn.
func (that *Board) MovePiece(piece *Piece, steps int) bool {
	path := PathFor(piece.owner)

	newIndex := steps - 1
	if pos, ok := piece.location.Square(); ok {
		index, err := that.LogicalIndex(piece)
		if err != nil {
			return false
		}
		newIndex = index + steps
		delete(that.occupied, pos)
	}

	if newIndex == PathLength {
		piece.location = Completed()
		return false
	}

	target := path[newIndex]
	if occupant := that.occupied[target]; occupant != nil {
		occupant.location = InHand()
	}

	that.occupied[target] = piece
	piece.location = OnSquare(target)

	return that.squares[target].Rosette
}
