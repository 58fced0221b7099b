package args

// Adapter makes a parsed value usable as a flag.Value.
type Adapter[T interface{ String() string }] struct {
	value  T
	parser func(string) (T, error)
	isSet  bool
}

func (a *Adapter[T]) String() string {
	if a.isSet {
		return a.value.String()
	}
	return ""
}

func (a *Adapter[T]) Set(s string) error {
	v, err := a.parser(s)
	if err != nil {
		return err
	}
	a.isSet = true
	a.value = v
	return nil
}

func (a Adapter[T]) Value() T {
	return a.value
}

func (a Adapter[T]) IsSet() bool {
	return a.isSet
}

// Parser wraps parser into an Adapter to be passed to flag.Var.
func Parser[T interface{ String() string }](parser func(string) (T, error)) *Adapter[T] {
	return &Adapter[T]{parser: parser}
}
