package royalur

const (
	LocationInHand    = "in_hand"
	LocationOnBoard   = "on_board"
	LocationCompleted = "completed"
)

// Location is where a piece currently is: waiting in its owner's hand,
// standing on a board square, or retired after bearing off. Build one
// with InHand, OnSquare or Completed; the position is only meaningful
// while the piece is on the board.
type Location struct {
	kind string
	pos  Position
}

func InHand() Location {
	return Location{kind: LocationInHand}
}

func OnSquare(pos Position) Location {
	return Location{kind: LocationOnBoard, pos: pos}
}

func Completed() Location {
	return Location{kind: LocationCompleted}
}

func (that Location) Kind() string {
	return that.kind
}

func (that Location) IsInHand() bool {
	return that.kind == LocationInHand
}

func (that Location) IsOnBoard() bool {
	return that.kind == LocationOnBoard
}

func (that Location) IsCompleted() bool {
	return that.kind == LocationCompleted
}

// Square returns the occupied position and whether the piece actually
// stands on the board.
func (that Location) Square() (Position, bool) {
	return that.pos, that.kind == LocationOnBoard
}

// Piece is one of the seven tokens a player races along their path.
// IDs run 1..PiecesPerPlayer and are unique per owner. The location is
// only ever changed by the board executor, so it can never disagree
// with the board's occupancy.
type Piece struct {
	owner    Player
	id       int
	location Location
}

func (that *Piece) Owner() Player {
	return that.owner
}

func (that *Piece) ID() int {
	return that.id
}

func (that *Piece) Location() Location {
	return that.location
}
