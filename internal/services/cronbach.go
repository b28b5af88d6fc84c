package services

// CronbachAlpha returns Cronbach's alpha for rows shaped [nEntries][nItems].
// Population variance is used throughout, so perfectly correlated items give
// exactly 1. Degenerate input (fewer than two items, ragged rows, zero total
// variance) yields 0; the result is clamped to [0,1].
func CronbachAlpha(rows [][]float64) float64 {
	if len(rows) == 0 {
		return 0
	}
	k := len(rows[0])
	if k < 2 {
		return 0
	}
	totals := make([]float64, len(rows))
	columns := make([][]float64, k)
	for i, row := range rows {
		if len(row) != k {
			return 0
		}
		for j, v := range row {
			columns[j] = append(columns[j], v)
			totals[i] += v
		}
	}
	totalVar := variance(totals)
	if totalVar == 0 {
		return 0
	}
	var itemVars float64
	for _, col := range columns {
		itemVars += variance(col)
	}
	kf := float64(k)
	alpha := kf / (kf - 1) * (1 - itemVars/totalVar)
	switch {
	case alpha < 0:
		return 0
	case alpha > 1:
		return 1
	}
	return alpha
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return sum / float64(len(xs))
}
