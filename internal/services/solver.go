package services

import (
	"fmt"
	"math"

	"last-mile-service/internal/domain"
)

// Delivery counts up to this bound are solved exactly; larger instances
// fall back to nearest-neighbor construction plus 2-opt improvement.
const exactSolveLimit = 12

// SolveRoute computes a visiting order over the matrix index space.
//
// Index 0 is the depot. When hasWaypoint is true index 1 is the
// security waypoint and the solver enforces the hard constraint that it
// is the first node visited after the depot; this encodes a safety
// detour requirement, not a distance optimization. Remaining indices
// are delivery nodes.
//
// The returned sequence contains every index exactly once, starting at
// 0; the total cost includes the final return leg to the depot.
func SolveRoute(dist [][]int, hasWaypoint bool) ([]int, int, error) {
	n := len(dist)
	if n == 0 {
		return nil, 0, fmt.Errorf("solve route: empty distance matrix: %w", domain.ErrSolverFailure)
	}
	for i, row := range dist {
		if len(row) != n {
			return nil, 0, fmt.Errorf("solve route: matrix row %d has %d columns, want %d: %w",
				i, len(row), n, domain.ErrSolverFailure)
		}
		for j, v := range row {
			if v < 0 {
				return nil, 0, fmt.Errorf("solve route: negative distance at (%d,%d): %w",
					i, j, domain.ErrSolverFailure)
			}
		}
	}

	if hasWaypoint && n < 2 {
		return nil, 0, fmt.Errorf("solve route: waypoint expected at index 1: %w", domain.ErrSolverFailure)
	}

	// Depot-only instance: nothing to visit.
	if n == 1 {
		return []int{0}, 0, nil
	}

	start := 0
	firstDelivery := 1
	if hasWaypoint {
		start = 1
		firstDelivery = 2
	}

	deliveries := make([]int, 0, n-firstDelivery)
	for i := firstDelivery; i < n; i++ {
		deliveries = append(deliveries, i)
	}

	var order []int
	if len(deliveries) <= exactSolveLimit {
		order = heldKarp(dist, start, deliveries)
	} else {
		order = nearestNeighbor(dist, start, deliveries)
		order = twoOpt(dist, start, order)
	}
	if order == nil {
		return nil, 0, fmt.Errorf("solve route: no feasible tour: %w", domain.ErrSolverFailure)
	}

	seq := make([]int, 0, n)
	seq = append(seq, 0)
	if hasWaypoint {
		seq = append(seq, 1)
	}
	seq = append(seq, order...)

	total := 0
	for i := 1; i < len(seq); i++ {
		total += dist[seq[i-1]][seq[i]]
	}
	total += dist[seq[len(seq)-1]][0]

	return seq, total, nil
}

// heldKarp solves the open path start -> all deliveries -> depot
// exactly via subset dynamic programming.
func heldKarp(dist [][]int, start int, deliveries []int) []int {
	m := len(deliveries)
	if m == 0 {
		return []int{}
	}

	const inf = math.MaxInt / 4

	size := 1 << m
	dp := make([][]int, size)
	parent := make([][]int, size)
	for mask := range dp {
		dp[mask] = make([]int, m)
		parent[mask] = make([]int, m)
		for i := range dp[mask] {
			dp[mask][i] = inf
			parent[mask][i] = -1
		}
	}

	for i := 0; i < m; i++ {
		dp[1<<i][i] = dist[start][deliveries[i]]
	}

	for mask := 1; mask < size; mask++ {
		for last := 0; last < m; last++ {
			if mask&(1<<last) == 0 || dp[mask][last] >= inf {
				continue
			}
			for next := 0; next < m; next++ {
				if mask&(1<<next) != 0 {
					continue
				}
				nextMask := mask | (1 << next)
				cost := dp[mask][last] + dist[deliveries[last]][deliveries[next]]
				// Strict improvement keeps the lowest-index tie-break
				// deterministic.
				if cost < dp[nextMask][next] {
					dp[nextMask][next] = cost
					parent[nextMask][next] = last
				}
			}
		}
	}

	full := size - 1
	bestEnd := -1
	bestCost := inf
	for i := 0; i < m; i++ {
		if dp[full][i] >= inf {
			continue
		}
		cost := dp[full][i] + dist[deliveries[i]][0]
		if cost < bestCost {
			bestCost = cost
			bestEnd = i
		}
	}
	if bestEnd == -1 {
		return nil
	}

	order := make([]int, m)
	mask := full
	cur := bestEnd
	for i := m - 1; i >= 0; i-- {
		order[i] = deliveries[cur]
		prev := parent[mask][cur]
		mask &^= 1 << cur
		cur = prev
	}

	return order
}

// nearestNeighbor builds an initial tour greedily, minimizing the
// immediate leg at each step with a lowest-index tie-break.
func nearestNeighbor(dist [][]int, start int, deliveries []int) []int {
	remaining := make(map[int]struct{}, len(deliveries))
	for _, d := range deliveries {
		remaining[d] = struct{}{}
	}

	order := make([]int, 0, len(deliveries))
	current := start

	for len(remaining) > 0 {
		best := -1
		bestCost := math.MaxInt
		for _, d := range deliveries {
			if _, ok := remaining[d]; !ok {
				continue
			}
			c := dist[current][d]
			if c < bestCost || (c == bestCost && (best == -1 || d < best)) {
				bestCost = c
				best = d
			}
		}
		if best == -1 {
			return nil
		}

		order = append(order, best)
		delete(remaining, best)
		current = best
	}

	return order
}

// twoOpt improves a delivery tour by reversing segments until no
// reversal shortens the path start -> deliveries -> depot.
func twoOpt(dist [][]int, start int, order []int) []int {
	if len(order) < 3 {
		return order
	}

	cost := func(o []int) int {
		total := dist[start][o[0]]
		for i := 1; i < len(o); i++ {
			total += dist[o[i-1]][o[i]]
		}
		return total + dist[o[len(o)-1]][0]
	}

	best := cost(order)
	improved := true
	for improved {
		improved = false
		for i := 0; i < len(order)-1; i++ {
			for j := i + 1; j < len(order); j++ {
				reverse(order, i, j)
				if c := cost(order); c < best {
					best = c
					improved = true
				} else {
					reverse(order, i, j)
				}
			}
		}
	}

	return order
}

func reverse(s []int, i, j int) {
	for i < j {
		s[i], s[j] = s[j], s[i]
		i++
		j--
	}
}
