package mapping

import "github.com/utkarsh5026/bindmap/idset"

// DecodeIDSet parses id-set text such as "0-4,7-9,11" into ascending ids.
// See idset.Decode.
func DecodeIDSet(text string) ([]int, error) {
	return idset.Decode(text)
}

// EncodeIDSet renders ids in canonical id-set form. See idset.Encode.
func EncodeIDSet(ids []int) string {
	return idset.Encode(ids)
}
