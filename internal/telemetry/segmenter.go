package telemetry

import "respira-monitor/internal/models"

// Segment 把分类序列折叠成连续同相位区段（最大游程）
//
// 按顺序遍历：相位变化时在前一个点收尾并开新区段，最后一个区段
// 收在末尾点。空输入 → 空列表；单点 → 一个零时长区段。
// 结果只用于渲染，每次快照从头重算，不维护增量状态。
func Segment(points []models.ClassifiedPoint) []models.PhaseBand {
	if len(points) == 0 {
		return nil
	}

	bands := make([]models.PhaseBand, 0, 4)
	start := 0
	for i := 1; i < len(points); i++ {
		if points[i].Phase != points[i-1].Phase {
			bands = append(bands, models.PhaseBand{
				Start: points[start].Reading.RecordedAt,
				End:   points[i-1].Reading.RecordedAt,
				Phase: points[start].Phase,
			})
			start = i
		}
	}
	bands = append(bands, models.PhaseBand{
		Start: points[start].Reading.RecordedAt,
		End:   points[len(points)-1].Reading.RecordedAt,
		Phase: points[start].Phase,
	})

	return bands
}
