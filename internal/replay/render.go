package replay

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/judgment/internal/game"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	winnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Render 渲染回放结果：比分表和核对结论
func Render(res *Result) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("🃏 房间 %s 回放 (%d 个操作)", res.Code, res.Actions)))
	sb.WriteString("\n\n")
	sb.WriteString(Scoreboard(res.Replayed))
	sb.WriteString("\n")

	switch {
	case res.Stored == nil:
		sb.WriteString(errorStyle.Render("⚠️ 保存的状态已过期，无法核对"))
	case len(res.Diffs) == 0:
		sb.WriteString(okStyle.Render("✅ 回放结果与保存的状态一致"))
	default:
		sb.WriteString(errorStyle.Render(fmt.Sprintf("❌ 发现 %d 处不一致:", len(res.Diffs))))
		for _, d := range res.Diffs {
			sb.WriteString("\n  - " + d)
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

// Scoreboard 每位玩家每轮的得分和总分，最高分高亮
func Scoreboard(s *game.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "阶段: %s  第 %d 轮  每人 %d 张  将牌 %s\n\n",
		s.Phase, s.RoundIndex+1, s.CardsPerPlayer, s.Trump.Symbol())

	header := fmt.Sprintf("%-12s", "玩家")
	for i := range s.ScoresHistory {
		header += fmt.Sprintf(" %5s", fmt.Sprintf("R%d", i+1))
	}
	header += fmt.Sprintf(" %6s", "总分")
	sb.WriteString(headerStyle.Render(header))
	sb.WriteString("\n")

	best := 0
	for i, p := range s.Players {
		if i == 0 || p.TotalPoints > best {
			best = p.TotalPoints
		}
	}

	players := slices.Clone(s.Players)
	slices.SortStableFunc(players, func(a, b *game.Player) int { return b.TotalPoints - a.TotalPoints })

	for _, p := range players {
		row := fmt.Sprintf("%-12s", truncateName(p.Name, 10))
		for _, round := range s.ScoresHistory {
			if pts, ok := round[p.ID]; ok {
				row += fmt.Sprintf(" %5d", pts)
			} else {
				row += fmt.Sprintf(" %5s", "-")
			}
		}
		row += fmt.Sprintf(" %6d", p.TotalPoints)
		if s.Phase == game.PhaseFinished && p.TotalPoints == best && len(s.ScoresHistory) > 0 {
			row = winnerStyle.Render(row + " 🏆")
		}
		sb.WriteString(row)
		sb.WriteString("\n")
	}
	return boxStyle.Render(sb.String())
}

func truncateName(name string, limit int) string {
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit-1]) + "…"
}
