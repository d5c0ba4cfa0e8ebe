package model

// MaxStackSize caps the amount of a single stack.
const MaxStackSize uint32 = 1000

// Stack is a quantity of one item. A stack held in a slot always has
// 0 < Amount <= MaxStackSize.
type Stack struct {
	Item   Item   `json:"item"`
	Amount uint32 `json:"amount"`
}

func NewStack(item Item, amount uint32) Stack { return Stack{Item: item, Amount: amount} }

// Add increases the amount and returns what did not fit. The stack is
// clamped at MaxStackSize.
func (s *Stack) Add(amount uint32) uint32 {
	space := uint32(0)
	if s.Amount < MaxStackSize {
		space = MaxStackSize - s.Amount
	}
	if amount <= space {
		s.Amount += amount
		return 0
	}
	s.Amount = MaxStackSize
	return amount - space
}

func (s Stack) Space() uint32 {
	if s.Amount >= MaxStackSize {
		return 0
	}
	return MaxStackSize - s.Amount
}

func (s Stack) Full() bool { return s.Amount >= MaxStackSize }
