package session

import (
	"encoding/json"
	"fmt"

	synister "github.com/ChitterSync/SynisterChat"
)

// plainCodec stores records as unencrypted JSON.
type plainCodec struct{}

func (plainCodec) Encrypt(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (plainCodec) Decrypt(blob []byte, v any) error {
	if err := json.Unmarshal(blob, v); err != nil {
		return fmt.Errorf("%w: %w", synister.ErrDecode, err)
	}
	return nil
}
