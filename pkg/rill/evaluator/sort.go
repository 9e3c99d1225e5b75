package evaluator

import (
	"sort"
)

// SortValue sorts an array without mutating the input and returns a new
// array. Records sort by the named columns; anything else sorts by value and
// ignores columns. Descending order is the ascending order reversed, which
// keeps the sort stable within equal keys.
func SortValue(val Object, columns []string, ascending, insensitive, natural bool) (Object, *Error) {
	arr, ok := baseObject(val).(*Array)
	if !ok {
		return val, nil
	}
	if len(arr.Elements) == 0 {
		return &Array{Elements: []Object{}}, nil
	}

	elements := make([]Object, len(arr.Elements))
	copy(elements, arr.Elements)

	if err := sortObjects(elements, columns, insensitive, natural); err != nil {
		return nil, err
	}

	if !ascending {
		for i, j := 0, len(elements)-1; i < j; i, j = i+1, j-1 {
			elements[i], elements[j] = elements[j], elements[i]
		}
	}

	return &Array{Elements: elements}, nil
}

// sortObjects stable-sorts elements in place. The regime is chosen by the
// first element: records sort column-wise, everything else value-wise.
func sortObjects(elements []Object, columns []string, insensitive, natural bool) *Error {
	if len(elements) == 0 {
		return nil
	}

	if first, ok := baseObject(elements[0]).(*Record); ok {
		if len(columns) == 0 {
			return newSortError("SORT-0001", nil)
		}
		for _, column := range columns {
			if _, found := first.Get(column); !found {
				return newSortError("SORT-0002", map[string]any{"Column": column})
			}
		}

		// The string-only flag gate: insensitive and natural apply only
		// when every requested cell across every row is a string.
		allStrings := true
	gate:
		for _, elem := range elements {
			rec, ok := baseObject(elem).(*Record)
			if !ok {
				allStrings = false
				break
			}
			for _, column := range columns {
				val, found := rec.Get(column)
				if !found {
					val = NULL
				}
				if _, isStr := baseObject(val).(*String); !isStr {
					allStrings = false
					break gate
				}
			}
		}

		rowInsensitive := insensitive && allStrings
		rowNatural := natural && allStrings

		sort.SliceStable(elements, func(i, j int) bool {
			return compareRows(elements[i], elements[j], columns, rowInsensitive, rowNatural) < 0
		})
		return nil
	}

	sort.SliceStable(elements, func(i, j int) bool {
		return compareSortValues(elements[i], elements[j], insensitive, natural) < 0
	})
	return nil
}

// compareRows compares two records column by column, short-circuiting on the
// first column that differs. Missing cells compare as null.
func compareRows(a, b Object, columns []string, insensitive, natural bool) int {
	for _, column := range columns {
		av := cellOrNull(a, column)
		bv := cellOrNull(b, column)
		if c := compareSortValues(av, bv, insensitive, natural); c != 0 {
			return c
		}
	}
	return 0
}

func cellOrNull(elem Object, column string) Object {
	if rec, ok := baseObject(elem).(*Record); ok {
		if val, found := rec.Get(column); found {
			return val
		}
	}
	return NULL
}

// compareSortValues compares two values under the sort flags. Insensitive
// folds string case before comparing. Natural compares string representations
// alphanumerically; a pair where either side has no string representation is
// a tie.
func compareSortValues(a, b Object, insensitive, natural bool) int {
	a = baseObject(a)
	b = baseObject(b)

	if insensitive {
		if as, ok := a.(*String); ok {
			a = &String{Value: foldCase(as.Value)}
		}
		if bs, ok := b.(*String); ok {
			b = &String{Value: foldCase(bs.Value)}
		}
	}

	if natural {
		as, aok := sortableString(a)
		bs, bok := sortableString(b)
		if !aok || !bok {
			return 0
		}
		return NaturalCompare(as, bs)
	}

	return compareObjects(a, b)
}
