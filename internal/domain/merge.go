package domain

// Merge сливает свежую серверную корзину remote с локальной local.
// Для товаров из protected (идёт debounce или запись ещё в пути) сохраняется локальная строка;
// если локальной строки нет, строка отбрасывается, чтобы не воскресить ожидающее удаление.
// Остальные строки берутся с сервера. Результат всегда пересчитан.
func Merge(local, remote *Cart, protected map[string]struct{}) *Cart {
	if remote == nil {
		return nil
	}

	out := &Cart{
		ID:    remote.ID,
		Items: make([]CartItem, 0, len(remote.Items)),
	}

	for _, serverItem := range remote.Items {
		if _, ok := protected[serverItem.Product.ID]; ok {
			if localItem, found := local.FindItem(serverItem.Product.ID); found {
				out.Items = append(out.Items, localItem)
			}
			continue
		}
		out.Items = append(out.Items, serverItem)
	}

	out = out.Clone()
	out.Recalculate()

	return out
}
