//go:build !race

package staff

func passwordHashCost() int {
	return 14
}
