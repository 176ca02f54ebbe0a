package domain

// CartLine — позиция корзины, присланная клиентом. Цена клиента никогда не принимается.
type CartLine struct {
	ProductID int64
	Quantity  int
}

// MergeLines складывает количества повторяющихся товаров, сохраняя порядок первого появления.
func MergeLines(lines []CartLine) []CartLine {
	idx := make(map[int64]int, len(lines))
	merged := make([]CartLine, 0, len(lines))

	for _, l := range lines {
		if i, ok := idx[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		idx[l.ProductID] = len(merged)
		merged = append(merged, l)
	}

	return merged
}

// ProductIDs возвращает идентификаторы товаров из позиций.
func ProductIDs(lines []CartLine) []int64 {
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}
