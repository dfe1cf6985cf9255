package docstore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const idField = "_id"

// withID marshals doc into an ordered document and makes sure it carries a
// string _id, generating one with newID when absent.
func withID(doc any, newID func() string) (bson.D, string, error) {
	d, err := toD(doc)
	if err != nil {
		return nil, "", err
	}

	for _, e := range d {
		if e.Key != idField {
			continue
		}
		id, ok := e.Value.(string)
		if !ok || id == "" {
			return nil, "", fmt.Errorf("document _id must be a non-empty string, got %T", e.Value)
		}
		return d, id, nil
	}

	id := newID()
	return append(bson.D{{Key: idField, Value: id}}, d...), id, nil
}

// toD normalizes any bson-marshalable value into a bson.D.
func toD(v any) (bson.D, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var d bson.D
	if err := bson.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return d, nil
}

// mergePatch overwrites or appends the patch fields on doc. The _id field
// is never replaced.
func mergePatch(doc bson.D, patch Patch) (bson.D, error) {
	p, err := toD(bson.M(patch))
	if err != nil {
		return nil, err
	}

	out := make(bson.D, len(doc))
	copy(out, doc)

	for _, pe := range p {
		if pe.Key == idField {
			continue
		}
		replaced := false
		for i := range out {
			if out[i].Key == pe.Key {
				out[i].Value = pe.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, pe)
		}
	}
	return out, nil
}

// matches reports whether every filter field equals the same field in doc.
func matches(doc bson.Raw, filter bson.Raw) (bool, error) {
	elems, err := filter.Elements()
	if err != nil {
		return false, err
	}
	for _, el := range elems {
		got, err := doc.LookupErr(el.Key())
		if err != nil {
			return false, nil
		}
		if !got.Equal(el.Value()) {
			return false, nil
		}
	}
	return true, nil
}

func cloneRaw(raw bson.Raw) bson.Raw {
	return append(bson.Raw(nil), raw...)
}

func rawID(raw bson.Raw) string {
	id, _ := raw.Lookup(idField).StringValueOK()
	return id
}
