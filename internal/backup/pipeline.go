package backup

import (
	"workforce-ingest/internal/config"
	apperrors "workforce-ingest/internal/errors"
)

// Artifact envelope header: magic, format version, compression algorithm,
// encryption flag. The header makes each artifact self-describing so a restore
// never depends on the configuration that produced the backup.
const (
	envelopeMagic0  = 'W'
	envelopeMagic1  = 'F'
	envelopeVersion = 1
	envelopeSize    = 4
)

var algorithmCodes = map[Algorithm]byte{
	AlgorithmNone: 0,
	AlgorithmGzip: 1,
	AlgorithmZstd: 2,
	AlgorithmLZ4:  3,
}

var algorithmsByCode = map[byte]Algorithm{
	0: AlgorithmNone,
	1: AlgorithmGzip,
	2: AlgorithmZstd,
	3: AlgorithmLZ4,
}

// Pipeline seals snapshot payloads for storage (compress, then encrypt) and
// opens them back on restore.
type Pipeline struct {
	compression *CompressionManager
	algorithm   Algorithm
	encryptor   *Encryptor
}

// NewPipeline builds the artifact pipeline from configuration
func NewPipeline(compression config.CompressionConfig, encryption config.EncryptionConfig) (*Pipeline, error) {
	algorithm := Algorithm(compression.Algorithm)
	if algorithm == "" {
		algorithm = AlgorithmNone
	}
	if _, ok := algorithmCodes[algorithm]; !ok {
		return nil, apperrors.NewFault("unsupported compression algorithm: "+compression.Algorithm, nil)
	}

	pipeline := &Pipeline{
		compression: NewCompressionManager(),
		algorithm:   algorithm,
	}

	if encryption.Enabled {
		encryptor, err := NewEncryptor(encryption.Passphrase)
		if err != nil {
			return nil, err
		}
		pipeline.encryptor = encryptor
	}

	return pipeline, nil
}

// Seal wraps a snapshot payload into a stored artifact
func (p *Pipeline) Seal(payload []byte) ([]byte, error) {
	data, err := p.compression.Compress(payload, p.algorithm)
	if err != nil {
		return nil, err
	}

	encrypted := byte(0)
	if p.encryptor != nil {
		data, err = p.encryptor.Encrypt(data)
		if err != nil {
			return nil, err
		}
		encrypted = 1
	}

	out := make([]byte, 0, envelopeSize+len(data))
	out = append(out, envelopeMagic0, envelopeMagic1, envelopeVersion,
		algorithmCodes[p.algorithm]<<1|encrypted)
	return append(out, data...), nil
}

// Open unwraps a stored artifact back into the snapshot payload, following
// the envelope rather than the current configuration.
func (p *Pipeline) Open(artifact []byte) ([]byte, error) {
	if len(artifact) < envelopeSize ||
		artifact[0] != envelopeMagic0 || artifact[1] != envelopeMagic1 {
		return nil, apperrors.NewFault("artifact envelope is malformed", nil)
	}
	if artifact[2] != envelopeVersion {
		return nil, apperrors.NewFault("unsupported artifact envelope version", nil).
			WithContext("version", artifact[2])
	}

	flags := artifact[3]
	algorithm, ok := algorithmsByCode[flags>>1]
	if !ok {
		return nil, apperrors.NewFault("artifact names an unknown compression algorithm", nil)
	}

	data := artifact[envelopeSize:]
	if flags&1 == 1 {
		if p.encryptor == nil {
			return nil, apperrors.NewFault("artifact is encrypted but no passphrase is configured", nil)
		}
		decrypted, err := p.encryptor.Decrypt(data)
		if err != nil {
			return nil, err
		}
		data = decrypted
	}

	return p.compression.Decompress(data, algorithm)
}
