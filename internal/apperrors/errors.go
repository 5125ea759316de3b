package apperrors

import (
	"errors"
	"fmt"
)

// Kind 错误分类，供调用方区分处理策略
type Kind string

const (
	KindPhase      Kind = "PhaseError"      // 当前阶段不允许该操作
	KindTurn       Kind = "TurnError"       // 还没轮到该玩家
	KindRule       Kind = "RuleViolation"   // 违反出牌或下注规则
	KindNotFound   Kind = "NotFoundError"   // 玩家不存在
	KindResource   Kind = "ResourceError"   // 牌不够发
	KindPermission Kind = "PermissionError" // 需要房主权限
	KindInternal   Kind = "InternalError"
)

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeReconnectFailed   = 1003
	ErrCodeRoomNotFound      = 2001
	ErrCodeNotInRoom         = 2003
	ErrCodeAlreadyInRoom     = 2005
	ErrCodeWrongPhase        = 3001
	ErrCodeNotYourTurn       = 3002
	ErrCodeInvalidCard       = 3003
	ErrCodeDealerConstraint  = 3004
	ErrCodeInvalidBet        = 3005
	ErrCodeCardNotInHand     = 3006
	ErrCodeNotEnoughPlayers  = 3007
	ErrCodeInvalidCardCount  = 3008
	ErrCodeInvalidName       = 3009
	ErrCodeUnknownAction     = 3010
	ErrCodeInvalidPlayerID   = 3011
	ErrCodePlayerNotFound    = 4001
	ErrCodeNotHost           = 4003
	ErrCodeNotEnoughCards    = 4101
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeReconnectFailed:   "重连失败，请重新进入",
	ErrCodeRoomNotFound:      "房间不存在",
	ErrCodeNotInRoom:         "您不在房间中",
	ErrCodeAlreadyInRoom:     "您已经在房间中",
	ErrCodeWrongPhase:        "当前阶段不能执行该操作",
	ErrCodeNotYourTurn:       "还没轮到您",
	ErrCodeInvalidCard:       "无效的出牌：必须跟出首家花色",
	ErrCodeDealerConstraint:  "无效的下注：最后一位下注者不能让总注数等于本轮牌数",
	ErrCodeInvalidBet:        "无效的下注",
	ErrCodeCardNotInHand:     "您手中没有这张牌",
	ErrCodeNotEnoughPlayers:  "玩家人数不足",
	ErrCodeInvalidCardCount:  "每人发牌数无效",
	ErrCodeInvalidName:       "昵称不能为空",
	ErrCodeUnknownAction:     "未知操作",
	ErrCodeInvalidPlayerID:   "缺少玩家 ID",
	ErrCodePlayerNotFound:    "玩家不存在",
	ErrCodeNotHost:           "只有房主可以执行该操作",
	ErrCodeNotEnoughCards:    "牌堆中的牌不够发",
	ErrCodeServerMaintenance: "服务器维护中",
}

// GameError 游戏错误（规则引擎、房间和连接层共享）
type GameError struct {
	Code    int
	Kind    Kind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is 按错误码比较，带有额外细节的副本仍然匹配对应的预定义错误
func (e *GameError) Is(target error) bool {
	var t *GameError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail 返回带补充说明的副本，错误码和分类不变
func (e *GameError) WithDetail(format string, args ...any) *GameError {
	return &GameError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message + ": " + fmt.Sprintf(format, args...),
	}
}

func newError(code int, kind Kind) *GameError {
	return &GameError{Code: code, Kind: kind, Message: ErrorMessages[code]}
}

// 预定义错误
var (
	ErrWrongPhase       = newError(ErrCodeWrongPhase, KindPhase)
	ErrNotYourTurn      = newError(ErrCodeNotYourTurn, KindTurn)
	ErrInvalidCard      = newError(ErrCodeInvalidCard, KindRule)
	ErrDealerConstraint = newError(ErrCodeDealerConstraint, KindRule)
	ErrInvalidBet       = newError(ErrCodeInvalidBet, KindRule)
	ErrCardNotInHand    = newError(ErrCodeCardNotInHand, KindRule)
	ErrNotEnoughPlayers = newError(ErrCodeNotEnoughPlayers, KindRule)
	ErrInvalidCardCount = newError(ErrCodeInvalidCardCount, KindRule)
	ErrInvalidName      = newError(ErrCodeInvalidName, KindRule)
	ErrUnknownAction    = newError(ErrCodeUnknownAction, KindRule)
	ErrInvalidPlayerID  = newError(ErrCodeInvalidPlayerID, KindRule)
	ErrPlayerNotFound   = newError(ErrCodePlayerNotFound, KindNotFound)
	ErrNotHost          = newError(ErrCodeNotHost, KindPermission)
	ErrNotEnoughCards   = newError(ErrCodeNotEnoughCards, KindResource)

	ErrRoomNotFound  = newError(ErrCodeRoomNotFound, KindNotFound)
	ErrNotInRoom     = newError(ErrCodeNotInRoom, KindNotFound)
	ErrAlreadyInRoom = newError(ErrCodeAlreadyInRoom, KindRule)

	ErrInvalidMsg      = newError(ErrCodeInvalidMsg, KindRule)
	ErrRateLimit       = newError(ErrCodeRateLimit, KindResource)
	ErrReconnectFailed = newError(ErrCodeReconnectFailed, KindPermission)
)

// KindOf 返回错误分类，非 GameError 视为内部错误
func KindOf(err error) Kind {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Kind
	}
	return KindInternal
}

// CodeOf 返回错误码，非 GameError 返回 ErrCodeUnknown
func CodeOf(err error) int {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr.Code
	}
	return ErrCodeUnknown
}
