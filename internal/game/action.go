package game

import "github.com/palemoky/judgment/internal/game/card"

// ActionType 玩家操作类型
type ActionType string

const (
	ActionJoin           ActionType = "JOIN"
	ActionStartGame      ActionType = "START_GAME"
	ActionBet            ActionType = "BET"
	ActionPlayCard       ActionType = "PLAY_CARD"
	ActionUpdateSettings ActionType = "UPDATE_SETTINGS"
	ActionToggleAway     ActionType = "TOGGLE_AWAY"
	ActionRenamePlayer   ActionType = "RENAME_PLAYER"
	ActionDisconnect     ActionType = "DISCONNECT"
	ActionEndGame        ActionType = "END_GAME"
)

// Action 玩家操作，所有类型共用同一个扁平结构，按 Type 使用对应字段
type Action struct {
	Type     ActionType `json:"type"`
	PlayerID string     `json:"playerId"`

	Name                  string     `json:"name,omitempty"`                  // JOIN, RENAME_PLAYER
	Bet                   *int       `json:"bet,omitempty"`                   // BET
	Card                  *card.Card `json:"card,omitempty"`                  // PLAY_CARD
	InitialCardsPerPlayer int        `json:"initialCardsPerPlayer,omitempty"` // START_GAME
	Seed                  string     `json:"seed,omitempty"`                  // START_GAME
	Settings              *Settings  `json:"settings,omitempty"`              // UPDATE_SETTINGS
}

// Join 加入或重连
func Join(playerID, name string) Action {
	return Action{Type: ActionJoin, PlayerID: playerID, Name: name}
}

// StartGame 开始一局，cardsPerPlayer 为 0 时按人数取最大值
func StartGame(playerID string, cardsPerPlayer int, seed string) Action {
	return Action{Type: ActionStartGame, PlayerID: playerID, InitialCardsPerPlayer: cardsPerPlayer, Seed: seed}
}

// Bet 下注
func Bet(playerID string, bet int) Action {
	return Action{Type: ActionBet, PlayerID: playerID, Bet: &bet}
}

// PlayCard 出牌
func PlayCard(playerID string, c card.Card) Action {
	return Action{Type: ActionPlayCard, PlayerID: playerID, Card: &c}
}

// UpdateSettings 修改房间设置
func UpdateSettings(playerID string, s Settings) Action {
	return Action{Type: ActionUpdateSettings, PlayerID: playerID, Settings: &s}
}

// ToggleAway 切换托管
func ToggleAway(playerID string) Action {
	return Action{Type: ActionToggleAway, PlayerID: playerID}
}

// Rename 修改昵称
func Rename(playerID, name string) Action {
	return Action{Type: ActionRenamePlayer, PlayerID: playerID, Name: name}
}

// Disconnect 玩家断线
func Disconnect(playerID string) Action {
	return Action{Type: ActionDisconnect, PlayerID: playerID}
}

// EndGame 结束本局
func EndGame(playerID string) Action {
	return Action{Type: ActionEndGame, PlayerID: playerID}
}
