package attachments

import (
	"math/big"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidAsset  = errors.New("invalid asset")
)

var (
	assetType  = reflect.TypeOf(Asset{})
	bigIntType = reflect.TypeOf(new(big.Int))
)

// ParseAsset reads "<amount> <symbol>", where amount is in the smallest units.
func ParseAsset(s string) (Asset, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Asset{}, errors.Wrapf(ErrInvalidAsset, "%q", s)
	}
	amount, ok := new(big.Int).SetString(fields[0], 10)
	if !ok {
		return Asset{}, errors.Wrapf(ErrInvalidAsset, "%q", s)
	}
	return NewAsset(amount, fields[1]), nil
}

func (a Asset) String() string {
	if a.Amount == nil {
		return "0 " + a.Symbol
	}
	return a.Amount.String() + " " + a.Symbol
}

func textHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	switch to {
	case assetType:
		if s, ok := data.(string); ok {
			return ParseAsset(s)
		}
	case bigIntType:
		switch v := data.(type) {
		case string:
			if n, ok := new(big.Int).SetString(v, 10); ok {
				return n, nil
			}
			return nil, errors.Errorf("invalid integer %q", v)
		case float64:
			return new(big.Int).SetUint64(uint64(v)), nil
		case int:
			return big.NewInt(int64(v)), nil
		}
	}
	return data, nil
}

// FromMap builds the encoded attachment of the named action from its textual form.
// Names and big integers are read from strings, assets from "<amount> <symbol>".
func FromMap(name string, data map[string]interface{}) ([]byte, error) {
	attachment := Empty(name)
	if attachment == nil {
		return nil, errors.Wrap(ErrUnknownAction, name)
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			textHook,
			mapstructure.TextUnmarshallerHookFunc(),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           attachment,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, errors.Wrapf(err, "cannot decode %v", name)
	}
	return Encode(attachment), nil
}
