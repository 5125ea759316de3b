package card

import (
	"crypto/sha256"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
)

// Suit 定义花色，数值顺序即固定的花色顺序：梅花 < 方块 < 红心 < 黑桃
type Suit int

// Rank 定义点数，2..14，11-14 为 J Q K A
type Rank int

const (
	Clubs    Suit = iota // 梅花
	Diamonds             // 方块
	Hearts               // 红心
	Spades               // 黑桃
)

// Suits 按固定顺序排列的四种花色
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

var suitNames = map[Suit]string{
	Clubs:    "clubs",
	Diamonds: "diamonds",
	Hearts:   "hearts",
	Spades:   "spades",
}

var suitLetters = map[Suit]string{
	Clubs:    "C",
	Diamonds: "D",
	Hearts:   "H",
	Spades:   "S",
}

// suitSymbols 花色符号映射表
var suitSymbols = map[Suit]string{
	Clubs:    "♣",
	Diamonds: "♦",
	Hearts:   "♥",
	Spades:   "♠",
}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return "unknown"
}

// Symbol 返回花色符号
func (s Suit) Symbol() string {
	return suitSymbols[s]
}

// MarshalText 花色在 JSON 中以名称表示
func (s Suit) MarshalText() ([]byte, error) {
	name, ok := suitNames[s]
	if !ok {
		return nil, fmt.Errorf("无法识别的花色: %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText 解析花色名称
func (s *Suit) UnmarshalText(text []byte) error {
	suit, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = suit
	return nil
}

// ParseSuit 解析花色名称或字母（不区分大小写）
func ParseSuit(v string) (Suit, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for s, name := range suitNames {
		if v == name || v == strings.ToLower(suitLetters[s]) {
			return s, nil
		}
	}
	return -1, fmt.Errorf("无法识别的花色: %q", v)
}

const (
	Rank2 Rank = iota + 2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ // Jack
	RankQ // Queen
	RankK // King
	RankA // Ace
)

// rankNames 牌面值字符串映射表
var rankNames = map[Rank]string{
	RankJ: "J",
	RankQ: "Q",
	RankK: "K",
	RankA: "A",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return strconv.Itoa(int(r))
}

// Valid 点数是否在 2..A 之间
func (r Rank) Valid() bool {
	return r >= Rank2 && r <= RankA
}

// Card 定义一张牌
type Card struct {
	Rank Rank   `json:"rank"`
	Suit Suit   `json:"suit"`
	ID   string `json:"id"`
}

// New 创建一张牌，ID 由点数和花色确定，例如 "AS"、"10H"、"2C"
func New(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit, ID: rank.String() + suitLetters[suit]}
}

// Parse 解析牌的 ID
func Parse(id string) (Card, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if len(id) < 2 {
		return Card{}, fmt.Errorf("无法识别的牌: %q", id)
	}
	suit, err := ParseSuit(id[len(id)-1:])
	if err != nil {
		return Card{}, err
	}
	label := id[:len(id)-1]
	for r := Rank2; r <= RankA; r++ {
		if r.String() == label {
			return New(r, suit), nil
		}
	}
	return Card{}, fmt.Errorf("无法识别的点数: %q", label)
}

// MustParse 解析若干牌 ID，失败时 panic，仅用于测试和固定数据
func MustParse(ids ...string) []Card {
	cards := make([]Card, 0, len(ids))
	for _, id := range ids {
		c, err := Parse(id)
		if err != nil {
			panic(err)
		}
		cards = append(cards, c)
	}
	return cards
}

// Same 按点数和花色判断是否为同一张牌
func (c Card) Same(other Card) bool {
	return c.Rank == other.Rank && c.Suit == other.Suit
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.Symbol()
}

// Deck 定义一副牌
type Deck []Card

// NewDeck 按点数 × 花色生成 52 张牌，不含随机性
func NewDeck() Deck {
	deck := make(Deck, 0, 52)
	for r := Rank2; r <= RankA; r++ {
		for _, s := range Suits {
			deck = append(deck, New(r, s))
		}
	}
	return deck
}

// Shuffle 返回洗好的新牌堆，不修改原牌堆。
// seed 非空时使用以 seed 为密钥的 ChaCha8 生成器，结果可复现；为空时使用全局随机源。
// 从最后一个位置向前做 Fisher–Yates：j 在 [0, i] 中均匀抽取。
func Shuffle(deck []Card, seed string) Deck {
	shuffled := slices.Clone(deck)

	intN := rand.IntN
	if seed != "" {
		rng := rand.New(rand.NewChaCha8(sha256.Sum256([]byte(seed))))
		intN = rng.IntN
	}

	for i := len(shuffled) - 1; i > 0; i-- {
		j := intN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// SortHand 整理手牌：先按花色（梅花、方块、红心、黑桃），同花色内按点数从大到小
func SortHand(hand []Card) {
	slices.SortFunc(hand, func(a, b Card) int {
		if a.Suit != b.Suit {
			return int(a.Suit) - int(b.Suit)
		}
		return int(b.Rank) - int(a.Rank)
	})
}

// sortByPriority 按 (点数, 花色) 升序排序，用于首轮按优先级弃牌
func sortByPriority(cards []Card) {
	slices.SortFunc(cards, func(a, b Card) int {
		if a.Rank != b.Rank {
			return int(a.Rank) - int(b.Rank)
		}
		return int(a.Suit) - int(b.Suit)
	})
}

// Contains 手牌中是否有这张牌
func Contains(hand []Card, c Card) bool {
	return slices.ContainsFunc(hand, c.Same)
}

// Remove 返回移除指定牌之后的新手牌，没有该牌时返回 false
func Remove(hand []Card, c Card) ([]Card, bool) {
	idx := slices.IndexFunc(hand, c.Same)
	if idx < 0 {
		return hand, false
	}
	out := make([]Card, 0, len(hand)-1)
	out = append(out, hand[:idx]...)
	out = append(out, hand[idx+1:]...)
	return out, true
}
