package convert

import (
	"github.com/wippyai/subgraph-runtime/asc"
	"github.com/wippyai/subgraph-runtime/store"
)

// EntityToAsc writes e as a TypedMap<String, Enum<StoreValueKind>>, with
// entries in key order.
func (c *Converter) EntityToAsc(h asc.Heap, e store.Entity) (EntityPtr, error) {
	keys := e.Keys()
	entries := make([]asc.MapEntry[asc.String, asc.Enum[store.ValueKind]], len(keys))
	for i, k := range keys {
		kp, err := asc.NewString(h, k)
		if err != nil {
			return 0, at(err, k)
		}
		vp, err := c.valueToAsc(h, e[k], 1)
		if err != nil {
			return 0, at(err, k)
		}
		entries[i] = asc.MapEntry[asc.String, asc.Enum[store.ValueKind]]{Key: kp, Value: vp}
	}
	return asc.NewTypedMap(h, entries)
}

// EntityFromAsc reads an entity map. A key that appears twice keeps its
// last value.
func (c *Converter) EntityFromAsc(h asc.Heap, p EntityPtr) (store.Entity, error) {
	entries, err := asc.GetTypedMap(h, p)
	if err != nil {
		return nil, err
	}
	e := make(store.Entity, len(entries))
	for i, entry := range entries {
		k, err := asc.GetString(h, entry.Key)
		if err != nil {
			return nil, atIndex(err, i)
		}
		v, err := c.valueFromAsc(h, entry.Value, 1)
		if err != nil {
			return nil, at(err, k)
		}
		e[k] = v
	}
	return e, nil
}
