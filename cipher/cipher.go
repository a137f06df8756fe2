// Package cipher encrypts session payloads under a rotating process-wide key.
//
// Blobs are AES-256-CBC with a random IV and an HMAC-SHA256 tag. A blob is
// only readable while the key it was written under is still active; after
// rotation Decrypt reports synister.ErrDecode and the value must be treated
// as unavailable.
package cipher

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	synister "github.com/ChitterSync/SynisterChat"
	"golang.org/x/crypto/hkdf"
)

const (
	ivSize  = aes.BlockSize
	tagSize = sha256.Size
)

// ivPrefixLen is the encoded width of the IV at the start of every blob.
var ivPrefixLen = base64.StdEncoding.EncodedLen(ivSize)

// KeyProvider supplies the active encryption key, or nil once it has been
// torn down.
type KeyProvider interface {
	CurrentKey() []byte
}

// Cipher serializes values to JSON and encrypts them.
type Cipher struct {
	keys KeyProvider
}

// New creates a Cipher over keys.
func New(keys KeyProvider) *Cipher {
	return &Cipher{keys: keys}
}

// Encrypt serializes v and returns base64(IV) followed by
// base64(ciphertext || tag).
func (c *Cipher) Encrypt(v any) ([]byte, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	key := c.keys.CurrentKey()
	if key == nil {
		return nil, synister.ErrClosed
	}
	encKey, macKey, err := splitKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	padded := pad(plain, aes.BlockSize)
	body := make([]byte, len(padded), len(padded)+tagSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(body, padded)
	body = append(body, sign(macKey, iv, body)...)

	out := make([]byte, 0, ivPrefixLen+base64.StdEncoding.EncodedLen(len(body)))
	out = base64.StdEncoding.AppendEncode(out, iv)
	out = base64.StdEncoding.AppendEncode(out, body)
	return out, nil
}

// Decrypt reverses Encrypt into v. Every failure wraps synister.ErrDecode.
func (c *Cipher) Decrypt(blob []byte, v any) error {
	if len(blob) <= ivPrefixLen {
		return fmt.Errorf("%w: blob too short", synister.ErrDecode)
	}

	iv := make([]byte, ivSize)
	n, err := base64.StdEncoding.Decode(iv, blob[:ivPrefixLen])
	if err != nil || n != ivSize {
		return fmt.Errorf("%w: bad iv", synister.ErrDecode)
	}

	body, err := base64.StdEncoding.DecodeString(string(blob[ivPrefixLen:]))
	if err != nil {
		return fmt.Errorf("%w: bad body encoding", synister.ErrDecode)
	}
	if len(body) < aes.BlockSize+tagSize || (len(body)-tagSize)%aes.BlockSize != 0 {
		return fmt.Errorf("%w: bad body length", synister.ErrDecode)
	}

	key := c.keys.CurrentKey()
	if key == nil {
		return fmt.Errorf("%w: %w", synister.ErrDecode, synister.ErrClosed)
	}
	encKey, macKey, err := splitKey(key)
	if err != nil {
		return fmt.Errorf("%w: %v", synister.ErrDecode, err)
	}

	ct, tag := body[:len(body)-tagSize], body[len(body)-tagSize:]
	if !hmac.Equal(tag, sign(macKey, iv, ct)) {
		return fmt.Errorf("%w: authentication failed (key rotated or data corrupt)", synister.ErrDecode)
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return fmt.Errorf("%w: %v", synister.ErrDecode, err)
	}
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	plain, err = unpad(plain, aes.BlockSize)
	if err != nil {
		return fmt.Errorf("%w: %v", synister.ErrDecode, err)
	}
	if err := json.Unmarshal(plain, v); err != nil {
		return fmt.Errorf("%w: %v", synister.ErrDecode, err)
	}
	return nil
}

// splitKey derives independent encryption and MAC keys from the active key.
func splitKey(key []byte) (encKey, macKey []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, fmt.Errorf("key is %d bytes, want %d", len(key), KeySize)
	}
	r := hkdf.New(sha256.New, key, nil, []byte("synister-session-mac"))
	macKey = make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, macKey); err != nil {
		return nil, nil, fmt.Errorf("derive mac key: %w", err)
	}
	return key, macKey, nil
}

func sign(macKey, iv, ct []byte) []byte {
	h := hmac.New(sha256.New, macKey)
	h.Write(iv)
	h.Write(ct)
	return h.Sum(nil)
}

// pad applies PKCS#7 padding.
func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(append([]byte(nil), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
