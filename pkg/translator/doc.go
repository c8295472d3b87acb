/*
Package translator flattens a content snapshot into keyed, dependency-linked descriptors.

A single pass visits every item in fetch order. Sub-references nested below an item are
resolved by external id: the first mention registers a descriptor, later mentions reuse its
key. Containers never produce a descriptor of their own.

	descs, err := translator.New(translator.WithKeyPrefix("bi")).Translate(snap)
*/
package translator
