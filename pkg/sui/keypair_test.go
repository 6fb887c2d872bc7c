package sui_test

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"errors"

	"github.com/anemonelab/agenthub/pkg/sui"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var seed = bytes.Repeat([]byte{7}, 32)

func keystoreKey(flag byte) string {
	return base64.StdEncoding.EncodeToString(append([]byte{flag}, seed...))
}

var _ = Describe("Keypair", func() {
	It("parses keystore keys with and without the scheme flag", func() {
		withFlag, err := sui.ParseKeystoreKey(keystoreKey(sui.Ed25519Flag))
		Expect(err).NotTo(HaveOccurred())
		bare, err := sui.ParseKeystoreKey(base64.StdEncoding.EncodeToString(seed))
		Expect(err).NotTo(HaveOccurred())
		Expect(withFlag.Address()).To(Equal(bare.Address()))
	})

	It("rejects other schemes and lengths", func() {
		_, err := sui.ParseKeystoreKey(keystoreKey(0x01))
		Expect(errors.Is(err, sui.ErrInvalidKey)).To(BeTrue())

		_, err = sui.ParseKeystoreKey(base64.StdEncoding.EncodeToString([]byte("short")))
		Expect(errors.Is(err, sui.ErrInvalidKey)).To(BeTrue())

		_, err = sui.ParseKeystoreKey("%%%")
		Expect(errors.Is(err, sui.ErrInvalidKey)).To(BeTrue())
	})

	It("derives a 32 byte hex address", func() {
		k := sui.NewKeypair(seed)
		Expect(k.Address()).To(MatchRegexp(`^0x[0-9a-f]{64}$`))
		Expect(sui.NewKeypair(bytes.Repeat([]byte{8}, 32)).Address()).NotTo(Equal(k.Address()))
	})

	It("signs the intent digest of the transaction bytes", func() {
		k := sui.NewKeypair(seed)
		txBytes := []byte("transaction-data")

		serialized, err := k.SignTransaction(base64.StdEncoding.EncodeToString(txBytes))
		Expect(err).NotTo(HaveOccurred())

		raw, err := base64.StdEncoding.DecodeString(serialized)
		Expect(err).NotTo(HaveOccurred())
		Expect(raw).To(HaveLen(1 + ed25519.SignatureSize + ed25519.PublicKeySize))
		Expect(raw[0]).To(Equal(sui.Ed25519Flag))

		sig := raw[1 : 1+ed25519.SignatureSize]
		pub := ed25519.PublicKey(raw[1+ed25519.SignatureSize:])
		Expect(pub).To(Equal(k.PublicKey()))

		digest := sui.TransactionDigest(txBytes)
		Expect(ed25519.Verify(pub, digest[:], sig)).To(BeTrue())
		Expect(ed25519.Verify(pub, txBytes, sig)).To(BeFalse())
	})

	It("fails on undecodable transaction bytes", func() {
		_, err := sui.NewKeypair(seed).SignTransaction("not base64!")
		Expect(err).To(HaveOccurred())
	})
})
