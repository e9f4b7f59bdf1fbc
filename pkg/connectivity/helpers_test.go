package connectivity

func wire(id string, x1, y1, x2, y2 float64) *Element {
	return &Element{UID: ItemID(id), Type: ItemWire, At: []Point{{x1, y1}, {x2, y2}}}
}

func busWire(id string, x1, y1, x2, y2 float64) *Element {
	return &Element{UID: ItemID(id), Type: ItemBus, At: []Point{{x1, y1}, {x2, y2}}}
}

func label(kind ItemKind, id, text string, x, y float64) *Element {
	return &Element{UID: ItemID(id), Type: kind, Label: text, At: []Point{{x, y}}}
}

func local(id, text string, x, y float64) *Element {
	return label(ItemLocalLabel, id, text, x, y)
}

func global(id, text string, x, y float64) *Element {
	return label(ItemGlobalLabel, id, text, x, y)
}

func hier(id, text string, x, y float64) *Element {
	return label(ItemHierLabel, id, text, x, y)
}

func pin(id, ref, num string, x, y float64) *Element {
	return &Element{UID: ItemID(id), Type: ItemPin, Ref: ref, PinNum: num, At: []Point{{x, y}}}
}

func powerPin(id, net string, x, y float64) *Element {
	return label(ItemPowerPin, id, net, x, y)
}

func junction(id string, x, y float64) *Element {
	return &Element{UID: ItemID(id), Type: ItemJunction, At: []Point{{x, y}}}
}

func sheetPin(id, text, child string, x, y float64) *Element {
	return &Element{UID: ItemID(id), Type: ItemSheetPin, Label: text, Sheet: child, At: []Point{{x, y}}}
}

func busEntry(id string, bx, by, wx, wy float64) *Element {
	return &Element{UID: ItemID(id), Type: ItemBusEntry, At: []Point{{bx, by}, {wx, wy}}}
}

func items(es ...*Element) []Item {
	out := make([]Item, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// clusterOf returns the cluster index holding item idx.
func clusterOf(res clusterResult, idx int) int {
	for ci, cl := range res.clusters {
		for _, i := range cl {
			if i == idx {
				return ci
			}
		}
	}
	return -1
}
