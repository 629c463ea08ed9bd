package dashboard

// ClassesNeeded is the number of consecutive classes to attend to reach goal percent.
// reachable is false when the goal is 100 and a class was already missed.
func ClassesNeeded(goal, attended, total int) (needed int, reachable bool) {
	num := goal*total - 100*attended
	if num <= 0 {
		return 0, true
	}
	den := 100 - goal
	if den <= 0 {
		return 0, false
	}
	return (num + den - 1) / den, true
}

// ClassesCanMiss is the number of consecutive classes that can be skipped while staying at goal percent.
func ClassesCanMiss(goal, attended, total int) int {
	if goal <= 0 {
		return 0
	}
	num := 100*attended - goal*total
	if num <= 0 {
		return 0
	}
	return num / goal
}

// Percentage is attended over total in percent; an empty record counts as 100.
func Percentage(attended, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(attended) / float64(total) * 100
}
