package engine

// Suit constants — packed into upper 4 bits of Card.
// Ordering matters: suit strength ascends Bastoni < Spade < Coppe < Denari.
const (
	SuitBastoni uint8 = 0
	SuitSpade   uint8 = 1
	SuitCoppe   uint8 = 2
	SuitDenari  uint8 = 3
)

// Rank constants — packed into lower 4 bits of Card.
// Ordering matters: rank strength ascends Asso < Due..Sette < Fante < Cavallo < Re.
const (
	RankAsso    uint8 = 0
	RankDue     uint8 = 1
	RankTre     uint8 = 2
	RankQuattro uint8 = 3
	RankCinque  uint8 = 4
	RankSei     uint8 = 5
	RankSette   uint8 = 6
	RankFante   uint8 = 7
	RankCavallo uint8 = 8
	RankRe      uint8 = 9
)

// Card is a packed uint8: upper 4 bits = suit, lower 4 bits = rank.
type Card uint8

// EmptyCard represents the absence of a card.
const EmptyCard Card = 0xFF

// DeckSize is the fixed size of the Neapolitan deck: 4 suits × 10 ranks.
const DeckSize = 40

// NewCard constructs a Card from suit and rank.
func NewCard(suit, rank uint8) Card {
	return Card((suit << 4) | (rank & 0x0F))
}

// Suit returns the suit bits (upper 4).
func (c Card) Suit() uint8 { return uint8(c) >> 4 }

// Rank returns the rank bits (lower 4).
func (c Card) Rank() uint8 { return uint8(c) & 0x0F }

// Jolly is the Asso di Denari, the one card whose strength is dynamic.
var Jolly = NewCard(SuitDenari, RankAsso)

// IsJolly reports whether this card is the Asso di Denari.
func (c Card) IsJolly() bool { return c == Jolly }

// JollyChoice is the declared resolution for a played jolly.
type JollyChoice uint8

const (
	JollyNone   JollyChoice = iota // no declaration (or not a jolly)
	JollyPrende                    // strictly above every other card
	JollyLascia                    // strictly below every other card
)

// Effective strengths for a resolved jolly. Static strengths occupy 0..39,
// so 50 beats everything (including Re di Denari = 39) and -1 loses to
// everything (including Asso di Bastoni = 0).
const (
	StrengthPrende int8 = 50
	StrengthLascia int8 = -1
)

// Strength returns the static strength of the card in the total order
// suit*10 + rank (0..39). For the jolly this is the strength of an
// undeclared Asso di Denari (30); use EffectiveStrength once a choice
// is fixed.
func (c Card) Strength() int8 {
	return int8(c.Suit())*10 + int8(c.Rank())
}

// EffectiveStrength resolves the card's strength under a jolly declaration.
// Non-jolly cards ignore the choice.
func (c Card) EffectiveStrength(choice JollyChoice) int8 {
	if c.IsJolly() {
		switch choice {
		case JollyPrende:
			return StrengthPrende
		case JollyLascia:
			return StrengthLascia
		}
	}
	return c.Strength()
}

var suitNames = [4]string{"Bastoni", "Spade", "Coppe", "Denari"}

var rankNames = [10]string{"Asso", "2", "3", "4", "5", "6", "7", "Fante", "Cavallo", "Re"}

// SuitName returns the Italian suit name, or "?" for a malformed card.
func (c Card) SuitName() string {
	if s := c.Suit(); s < 4 {
		return suitNames[s]
	}
	return "?"
}

// RankName returns the Italian rank name, or "?" for a malformed card.
func (c Card) RankName() string {
	if r := c.Rank(); r < 10 {
		return rankNames[r]
	}
	return "?"
}

// String renders the card as e.g. "Asso di Denari".
func (c Card) String() string {
	if c == EmptyCard {
		return "(none)"
	}
	return c.RankName() + " di " + c.SuitName()
}
