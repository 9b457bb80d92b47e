package recon

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
)

// ErrMalformedListing is returned for listing bodies that do not have the
// container enumeration shape.
var ErrMalformedListing = errors.New("malformed container listing")

var utf8BOM = []byte("\xef\xbb\xbf")

type xmlNode struct {
	XMLName xml.Name
	Nodes   []xmlNode `xml:",any"`
	Content string    `xml:",chardata"`
}

func (n *xmlNode) child(name string) (*xmlNode, bool) {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i], true
		}
	}
	return nil, false
}

// Listing is one page of a container enumeration response.
type Listing struct {
	Names      []string
	NextMarker string
}

// ParseListing decodes an EnumerationResults document. The root's first child
// holds one Blob element per object, each with a Name child. An empty first
// child means the container has no objects.
func ParseListing(body []byte) (*Listing, error) {
	body = bytes.TrimPrefix(body, utf8BOM)

	var root xmlNode
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedListing, err)
	}
	if root.XMLName.Local != "EnumerationResults" {
		return nil, fmt.Errorf("%w: unexpected root <%s>", ErrMalformedListing, root.XMLName.Local)
	}
	if len(root.Nodes) == 0 {
		return nil, fmt.Errorf("%w: <%s> has no children", ErrMalformedListing, root.XMLName.Local)
	}

	list := &Listing{}
	blobs := root.Nodes[0]
	for _, blob := range blobs.Nodes {
		if blob.XMLName.Local != "Blob" {
			return nil, fmt.Errorf("%w: unexpected <%s> in <%s>", ErrMalformedListing, blob.XMLName.Local, blobs.XMLName.Local)
		}
		name, ok := blob.child("Name")
		if !ok {
			return nil, fmt.Errorf("%w: <Blob> without <Name>", ErrMalformedListing)
		}
		list.Names = append(list.Names, name.Content)
	}

	if next, ok := root.child("NextMarker"); ok {
		list.NextMarker = next.Content
	}
	return list, nil
}
