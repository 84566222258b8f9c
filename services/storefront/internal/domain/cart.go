package domain

type CartMode string

const (
	ModeLocal  CartMode = "local"
	ModeRemote CartMode = "remote"
)

type CartLineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
	ImageRef  string  `json:"imageRef"`
}

// CartState is owned by the cart core; everything else sees copies.
type CartState struct {
	Mode      CartMode
	Items     []CartLineItem
	IsSyncing bool
	LastError ErrorKind
}

func (s CartState) IndexOf(productID string) int {
	for i, item := range s.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func CloneItems(items []CartLineItem) []CartLineItem {
	out := make([]CartLineItem, len(items))
	copy(out, items)
	return out
}
