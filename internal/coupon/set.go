package coupon

// mapCouponSet implements CouponSet using a map for O(1) lookups. The slice
// keeps first-seen order so imports are deterministic.
type mapCouponSet struct {
	coupons map[string]struct{}
	order   []string
}

// NewMapCouponSet creates a new map-based coupon set.
func NewMapCouponSet(capacity int) CouponSet {
	return &mapCouponSet{
		coupons: make(map[string]struct{}, capacity),
		order:   make([]string, 0, capacity),
	}
}

// Contains checks if a coupon code exists in the set.
func (s *mapCouponSet) Contains(code string) bool {
	_, exists := s.coupons[code]
	return exists
}

// Size returns the number of coupons in the set.
func (s *mapCouponSet) Size() int {
	return len(s.coupons)
}

// Codes returns the codes in the order they were first added.
func (s *mapCouponSet) Codes() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Add adds a coupon code to the set. It reports whether the code was new.
func (s *mapCouponSet) Add(code string) bool {
	if _, exists := s.coupons[code]; exists {
		return false
	}
	s.coupons[code] = struct{}{}
	s.order = append(s.order, code)
	return true
}

// Merge combines sets into one, keeping the first occurrence of each code.
func Merge(sets ...CouponSet) CouponSet {
	total := 0
	for _, s := range sets {
		total += s.Size()
	}

	merged := NewMapCouponSet(total).(*mapCouponSet)
	for _, s := range sets {
		for _, code := range s.Codes() {
			merged.Add(code)
		}
	}
	return merged
}
