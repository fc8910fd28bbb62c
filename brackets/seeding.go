package brackets

// SeedingOrder returns the seed number assigned to each bracket position
// 1..size for a balanced single-elimination draw. size must be a power of
// two, minimum 2.
//
// Built by doubling: [1 2] expands so that every seed keeps its side of the
// draw and meets the complementary seed (2n+1-s) first. For size 4 the
// order is [1 4 3 2]; seed 1 and seed 2 can only meet in the final, for
// any size.
func SeedingOrder(size int) []int {
	order := []int{1, 2}
	for len(order) < size {
		n := len(order) * 2
		next := make([]int, 0, n)
		for i, s := range order {
			if i%2 == 0 {
				next = append(next, s, n+1-s)
			} else {
				next = append(next, n+1-s, s)
			}
		}
		order = next
	}
	return order
}
