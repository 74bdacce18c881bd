// Package assets loads a compiled tokenizer model off disk: the compiled
// character-map blob and the piece table described by SPEC_FULL.md §6's
// on-disk asset layout. It is pure I/O — nothing here participates in
// Encode, matching spec.md §5's "the compiled character-map blob and the
// serialized model proto must outlive the Normalizer / Segmenter that
// reference their interior byte ranges".
//
// The locking/retry shape is grounded on execOnFileLock in the teacher's
// hub/download.go: a gofrs/flock file lock, polled with jittered retries
// rather than a blocking lock call, so a Load racing a concurrent writer
// backs off rather than spinning. The polling has no upper bound: Load
// waits for as long as a writer holds the lock.
package assets

import (
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/edsrzf/mmap-go"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/go-tokenizer-core/sentencepiece"
)

const (
	charmapFile = "charmap.bin"
	piecesFile  = "pieces.json"
	lockFile    = ".lock"
)

// pieceRecord is pieces.json's on-disk shape: a stand-in for the
// out-of-scope protobuf ModelProto, deliberately simple since
// training/serialization proper is a non-goal.
type pieceRecord struct {
	BytesB64 string                  `json:"bytes_b64"`
	Score    float32                 `json:"score"`
	Type     sentencepiece.PieceType `json:"type"`
}

// Store loads compiled tokenizer models from a directory layout. The zero
// value is ready to use.
type Store struct{}

// Load reads dir/charmap.bin (mmap'd read-only) and dir/pieces.json,
// returning the compiled character-map blob and the decoded piece table. A
// shared flock on dir/.lock is held for the duration of the read so a
// concurrent writer replacing the model directory cannot be observed
// mid-write; Load itself never writes.
//
// The returned charmap slice aliases the mmap'd region and must not be
// retained past process exit; callers typically hand it directly to
// normalizer.New without copying.
func (Store) Load(dir string) (charmap []byte, pieces []sentencepiece.Piece, err error) {
	fileLock := flock.New(filepath.Join(dir, lockFile))
	if err := lockShared(fileLock); err != nil {
		return nil, nil, errors.WithMessagef(err, "while locking model directory %q", dir)
	}
	defer func() {
		if unlockErr := fileLock.Unlock(); unlockErr != nil {
			klog.Warningf("assets: error unlocking %q: %v", dir, unlockErr)
		}
	}()

	charmap, err = readCharmap(filepath.Join(dir, charmapFile))
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "while reading %q", charmapFile)
	}

	pieces, err = readPieces(filepath.Join(dir, piecesFile))
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "while reading %q", piecesFile)
	}

	klog.V(2).Infof("assets: loaded model from %q: %d bytes charmap, %d pieces", dir, len(charmap), len(pieces))
	return charmap, pieces, nil
}

// readCharmap mmaps path read-only and returns its bytes. An empty or
// absent file is reported as an empty blob (identity normalization),
// matching normalizer.New's contract rather than erroring.
func readCharmap(path string) ([]byte, error) {
	if info, statErr := os.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, nil
		}
		return nil, errors.Wrapf(statErr, "stat %q", path)
	} else if info.Size() == 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %q", path)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %q", path)
	}
	return []byte(m), nil
}

// readPieces decodes pieces.json into the in-memory Piece table.
func readPieces(path string) ([]sentencepiece.Piece, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %q", path)
	}

	var records []pieceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "decode %q", path)
	}

	pieces := make([]sentencepiece.Piece, len(records))
	for i, r := range records {
		decoded, err := base64.StdEncoding.DecodeString(r.BytesB64)
		if err != nil {
			return nil, errors.Wrapf(err, "decode bytes_b64 for piece %d", i)
		}
		pieces[i] = sentencepiece.Piece{Bytes: decoded, Score: r.Score, Type: r.Type}
	}
	return pieces, nil
}

// lockShared acquires fileLock for reading, polling with a jittered
// 1-2 second backoff when it's already held for writing, matching
// execOnFileLock's retry shape in the teacher's hub/download.go.
func lockShared(fileLock *flock.Flock) error {
	for {
		locked, err := fileLock.TryRLock()
		if err != nil {
			return errors.Wrapf(err, "while trying to lock %q", fileLock.Path())
		}
		if locked {
			return nil
		}
		time.Sleep(time.Millisecond * time.Duration(1000+rand.Intn(1000)))
	}
}

// Save writes a model directory in the layout Load expects. It is provided
// for tests and for callers assembling a model from an in-memory piece
// table and compiled charmap; it takes an exclusive lock on the same
// dir/.lock sibling file Load uses a shared lock on.
func (Store) Save(dir string, charmap []byte, pieces []sentencepiece.Piece) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating model directory %q", dir)
	}

	fileLock := flock.New(filepath.Join(dir, lockFile))
	if err := fileLock.Lock(); err != nil {
		return errors.Wrapf(err, "locking %q", fileLock.Path())
	}
	defer func() {
		if err := fileLock.Unlock(); err != nil {
			klog.Warningf("assets: error unlocking %q: %v", dir, err)
		}
	}()

	if err := os.WriteFile(filepath.Join(dir, charmapFile), charmap, 0o644); err != nil {
		return errors.Wrapf(err, "writing %q", charmapFile)
	}

	records := make([]pieceRecord, len(pieces))
	for i, p := range pieces {
		records[i] = pieceRecord{
			BytesB64: base64.StdEncoding.EncodeToString(p.Bytes),
			Score:    p.Score,
			Type:     p.Type,
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %q", piecesFile)
	}
	if err := os.WriteFile(filepath.Join(dir, piecesFile), data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %q", piecesFile)
	}
	return nil
}
