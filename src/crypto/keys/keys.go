// Package keys implements the device identity key-pair.
//
// Every node owns an ECDSA key-pair generated on first initialization and
// persisted alongside the rest of its configuration. The key identifies the
// device during provisioning. We use btcsuite's golang implementation of the
// secp256k1 curve.
package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

// Order of the secp256k1 curve. Used to validate parsed private keys.
var secp256k1N, _ = new(big.Int).SetString(
	"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

// Curve returns the elliptic.Curve used for device keys.
func Curve() elliptic.Curve {
	return btcec.S256() //secp256k1
}

// GenerateDeviceKey creates a new device key-pair drawing randomness from
// rng. The rng is injected rather than defaulted to crypto/rand so the
// embedding process can supply a hardware RNG.
func GenerateDeviceKey(rng io.Reader) (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(Curve(), rng)
}

// DumpHex exports a private key as the hex dump of its D value, padded to
// the curve's byte size.
func DumpHex(priv *ecdsa.PrivateKey) string {
	if priv == nil {
		return ""
	}
	size := priv.Params().BitSize / 8
	d := priv.D.Bytes()
	if len(d) < size {
		padded := make([]byte, size)
		copy(padded[size-len(d):], d)
		d = padded
	}
	return hex.EncodeToString(d)
}

// ParseHex rebuilds a private key from the hex dump produced by DumpHex.
func ParseHex(s string) (*ecdsa.PrivateKey, error) {
	d, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}

	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = Curve()

	if 8*len(d) != priv.Params().BitSize {
		return nil, fmt.Errorf("invalid key length, need %d bits", priv.Params().BitSize)
	}

	priv.D = new(big.Int).SetBytes(d)

	if priv.D.Cmp(secp256k1N) >= 0 {
		return nil, fmt.Errorf("invalid private key, >=N")
	}
	if priv.D.Sign() <= 0 {
		return nil, fmt.Errorf("invalid private key, zero or negative")
	}

	priv.PublicKey.X, priv.PublicKey.Y = priv.PublicKey.Curve.ScalarBaseMult(d)

	return priv, nil
}

// PublicKeyBytes returns the uncompressed encoding of the public key.
func PublicKeyBytes(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	return elliptic.Marshal(Curve(), pub.X, pub.Y)
}
