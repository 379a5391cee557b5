// Package sample 提供在服务层进行的均匀无放回抽样和洗牌。
package sample

import "math/rand/v2"

// Indices 从 [0, n) 中均匀无放回地抽取 min(k, n) 个下标。
// 使用部分 Fisher–Yates，只打乱前k个位置。
func Indices(r *rand.Rand, n, k int) []int {
	if n <= 0 || k <= 0 {
		return []int{}
	}
	if k > n {
		k = n
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + r.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:k:k]
}

// Pick 从items中均匀无放回地抽取k个元素，顺序随机
func Pick[T any](r *rand.Rand, items []T, k int) []T {
	picked := make([]T, 0, min(max(k, 0), len(items)))
	for _, i := range Indices(r, len(items), k) {
		picked = append(picked, items[i])
	}
	return picked
}

// Shuffle 原地打乱切片
func Shuffle[T any](r *rand.Rand, items []T) {
	r.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
