package room

import (
	"context"
	"log"
	"time"

	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/logger"
)

// needsAutoPlay 当前行动玩家暂时离开且房间开启了托管
func needsAutoPlay(s *game.State) bool {
	actor := s.CurrentActor()
	return actor != nil && actor.IsAway && s.Settings.AutoPlayEnabled
}

func (r *Room) autoPlayDelay() time.Duration {
	if ms := r.state.Settings.AutoPlayDelayMs; ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return r.autoDelay
}

func (r *Room) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// scheduleAutoPlayLocked 每次状态变化后重新安排托管计时器
func (r *Room) scheduleAutoPlayLocked() {
	r.stopTimerLocked()
	if r.closed || !needsAutoPlay(r.state) {
		return
	}

	version := r.version
	r.timer = time.AfterFunc(r.autoPlayDelay(), func() {
		r.autoPlay(version)
	})
}

// autoPlay 计时器触发时执行托管操作；状态已经变化过的旧计时器什么也不做
func (r *Room) autoPlay(version uint64) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.LogPanic(rec)
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.version != version || !needsAutoPlay(r.state) {
		return
	}

	action, ok := game.AutoAction(r.state)
	if !ok {
		return
	}
	log.Printf("🤖 房间 %s 玩家 %s 托管操作 %s", r.Code, action.PlayerID, action.Type)
	if _, err := r.dispatchLocked(context.Background(), action); err != nil {
		log.Printf("⚠️ 房间 %s 托管操作失败: %v", r.Code, err)
	}
}
