package badgerstore

import "fmt"

// Key layout:
//
//	<prefix><id>                       primary record
//	<prefix>idx:<index>:<value>        unique index entry, value is the record id
const indexSegment = "idx:"

func primaryKey(prefix, id string) []byte {
	return []byte(prefix + id)
}

func indexKey(prefix, index, value string) []byte {
	return []byte(prefix + indexSegment + index + ":" + value)
}

// ordinalKey renders a chapter index so that byte order equals numeric order.
func ordinalKey(nid string, index int64) string {
	return fmt.Sprintf("%s:%020d", nid, index)
}
