package mongodb

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

var tUUID = reflect.TypeOf(uuid.UUID{})

// NewRegistry เก็บ uuid.UUID เป็น BSON binary subtype 4
func NewRegistry() *bsoncodec.Registry {
	registry := bson.NewRegistry()
	registry.RegisterTypeEncoder(tUUID, bsoncodec.ValueEncoderFunc(encodeUUID))
	registry.RegisterTypeDecoder(tUUID, bsoncodec.ValueDecoderFunc(decodeUUID))
	return registry
}

func encodeUUID(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != tUUID {
		return bsoncodec.ValueEncoderError{Name: "encodeUUID", Types: []reflect.Type{tUUID}, Received: val}
	}
	id := val.Interface().(uuid.UUID)
	return vw.WriteBinaryWithSubtype(id[:], bson.TypeBinaryUUID)
}

func decodeUUID(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != tUUID {
		return bsoncodec.ValueDecoderError{Name: "decodeUUID", Types: []reflect.Type{tUUID}, Received: val}
	}

	switch vr.Type() {
	case bson.TypeNull:
		if err := vr.ReadNull(); err != nil {
			return err
		}
		val.Set(reflect.Zero(tUUID))
		return nil
	case bson.TypeBinary:
		data, subtype, err := vr.ReadBinary()
		if err != nil {
			return err
		}
		if subtype != bson.TypeBinaryUUID || len(data) != len(uuid.UUID{}) {
			return fmt.Errorf("cannot decode binary subtype %#x (len %d) as uuid", subtype, len(data))
		}
		var id uuid.UUID
		copy(id[:], data)
		val.Set(reflect.ValueOf(id))
		return nil
	default:
		return fmt.Errorf("cannot decode %v as uuid", vr.Type())
	}
}
