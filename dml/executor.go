// Package dml implements the node-local DML executor (C8): device-sharded
// insert/delete/update with secondary-index maintenance, and MDELETE mass
// delete via a prefetch pipeline.
package dml

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/shardsql/shardsql/collab"
	"github.com/shardsql/shardsql/sql"
	"github.com/shardsql/shardsql/txn"
)

// InsertInput is one row to insert, already serialized to its on-disk
// image, alongside the column values used to compute index keys.
type InsertInput struct {
	Values []sql.Value
	Image  []byte
}

// DeleteInput identifies one row to delete by its current location and
// index key.
type DeleteInput struct {
	RID      collab.RID
	Block    collab.Block
	Offset   int32
	OldImage []byte
}

// UpdateInput identifies one row to update in place or relocate.
type UpdateInput struct {
	RID       collab.RID
	Block     collab.Block
	Offset    int32
	OldValues []sql.Value
	NewValues []sql.Value
	OldImage  []byte
	NewImage  []byte
}

// Executor drives device-sharded DML against one table's indexes.
type Executor struct {
	Metadata  collab.Metadata
	Pool      collab.BufferPool
	Indexes   map[string]collab.Index // index name -> opened index
	IndexDefs []collab.IndexDef
	MaxBatch  int
}

func deviceGroups(n int, deviceOf func(i int) int32) map[int32][]int {
	groups := map[int32][]int{}
	for i := 0; i < n; i++ {
		d := deviceOf(i)
		groups[d] = append(groups[d], i)
	}
	return groups
}

func (e *Executor) indexKey(def collab.IndexDef, values []sql.Value) collab.IndexKey {
	key := make(collab.IndexKey, len(def.KeyCols))
	for i, c := range def.KeyCols {
		key[i] = values[c]
	}
	return key
}

func keyChanged(a, b collab.IndexKey) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		c, err := a[i].Compare(b[i])
		if err != nil || c != 0 {
			return true
		}
	}
	return false
}

// InsertBatch partitions rows by target device (§4.8 step: device =
// MetaData.determine_device(row, partition_meta)) and runs one worker
// goroutine per device. The operation succeeds only if every device
// thread succeeds.
func (e *Executor) InsertBatch(tx *txn.Transaction, table string, rows []InsertInput, partitionMeta interface{}) ([]collab.RID, error) {
	devices := deviceGroups(len(rows), func(i int) int32 {
		d, err := e.Metadata.DetermineDevice(rows[i].Values, partitionMeta)
		if err != nil {
			log.WithField("error", err.Error()).Error("dml: determine_device failed, defaulting to device 0")
			return 0
		}
		return d
	})

	rids := make([]collab.RID, len(rows))
	errs := make(chan error, len(devices))
	var wg sync.WaitGroup

	for _, idxs := range devices {
		wg.Add(1)
		go func(idxs []int) {
			defer wg.Done()
			for _, i := range idxs {
				rid, err := tx.InsertRow(table, rows[i].Image)
				if err != nil {
					errs <- fmt.Errorf("dml: insert row %d: %w", i, err)
					return
				}
				rids[i] = rid
				for _, def := range e.IndexDefs {
					idx := e.Indexes[def.Name]
					key := e.indexKey(def, rows[i].Values)
					if err := idx.Insert(key, rid); err != nil {
						errs <- fmt.Errorf("dml: index %s insert: %w", def.Name, err)
						return
					}
				}
			}
		}(idxs)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		return nil, err
	}
	return rids, nil
}

// DeleteBatch partitions by rid.Device and runs one worker goroutine per
// device.
func (e *Executor) DeleteBatch(tx *txn.Transaction, table string, rowValues [][]sql.Value, dels []DeleteInput) error {
	devices := deviceGroups(len(dels), func(i int) int32 { return dels[i].RID.Device })

	errs := make(chan error, len(devices))
	var wg sync.WaitGroup
	for _, idxs := range devices {
		wg.Add(1)
		go func(idxs []int) {
			defer wg.Done()
			for _, i := range idxs {
				d := dels[i]
				if err := tx.DeleteRow(d.RID, d.Block, d.Offset, d.OldImage); err != nil {
					errs <- fmt.Errorf("dml: delete row: %w", err)
					return
				}
				for _, def := range e.IndexDefs {
					idx := e.Indexes[def.Name]
					key := e.indexKey(def, rowValues[i])
					if err := idx.Delete(key, d.RID); err != nil {
						errs <- fmt.Errorf("dml: index %s delete: %w", def.Name, err)
						return
					}
				}
			}
		}(idxs)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		return err
	}
	return nil
}

// UpdateBatch partitions by rid.Device. For each mutated row, an index
// whose key columns are untouched and whose RID did not move gets a
// single Update call; otherwise it is deleted under the old key and
// reinserted under the new one (§4.8 step 4).
func (e *Executor) UpdateBatch(tx *txn.Transaction, table string, upds []UpdateInput) error {
	devices := deviceGroups(len(upds), func(i int) int32 { return upds[i].RID.Device })

	errs := make(chan error, len(devices))
	var wg sync.WaitGroup
	for _, idxs := range devices {
		wg.Add(1)
		go func(idxs []int) {
			defer wg.Done()
			for _, i := range idxs {
				u := upds[i]
				change, err := tx.UpdateRow(u.RID, u.Block, u.Offset, u.OldImage, u.NewImage)
				if err != nil {
					errs <- fmt.Errorf("dml: update row: %w", err)
					return
				}

				for _, def := range e.IndexDefs {
					idx := e.Indexes[def.Name]
					oldKey := e.indexKey(def, u.OldValues)
					newKey := e.indexKey(def, u.NewValues)

					if !change.Moved && !keyChanged(oldKey, newKey) {
						if err := idx.Update(oldKey, change.Old, change.New); err != nil {
							errs <- fmt.Errorf("dml: index %s update: %w", def.Name, err)
							return
						}
						continue
					}
					if err := idx.Delete(oldKey, change.Old); err != nil {
						errs <- fmt.Errorf("dml: index %s delete during update: %w", def.Name, err)
						return
					}
					if err := idx.Insert(newKey, change.New); err != nil {
						errs <- fmt.Errorf("dml: index %s insert during update: %w", def.Name, err)
						return
					}
				}
			}
		}(idxs)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		return err
	}
	return nil
}

// MassDelete (MDELETE) truncates table: it scans every block across
// deviceTables in batches of prefetchRequestSize blocks, and before each
// batch issues one RequestPages call for the next pagesInAdvance batches.
// It zeroes every block that is not already zeroed, logging each as one
// Delete record, then mass-deletes every index. It returns the number of
// blocks it zeroed; rows within a block are not counted individually.
func (e *Executor) MassDelete(tx *txn.Transaction, deviceTables []string, prefetchRequestSize, pagesInAdvance int) (int64, error) {
	var total int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	errs := make(chan error, len(deviceTables))

	for _, table := range deviceTables {
		wg.Add(1)
		go func(table string) {
			defer wg.Done()
			n, err := e.massDeleteDevice(tx, table, prefetchRequestSize, pagesInAdvance)
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			total += n
			mu.Unlock()
		}(table)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		return 0, err
	}

	for _, def := range e.IndexDefs {
		if err := e.Indexes[def.Name].MassDelete(); err != nil {
			return 0, fmt.Errorf("dml: mass delete index %s: %w", def.Name, err)
		}
	}
	return total, nil
}

func (e *Executor) massDeleteDevice(tx *txn.Transaction, table string, prefetchRequestSize, pagesInAdvance int) (int64, error) {
	blocks, err := e.Pool.ScanBlocks(table)
	if err != nil {
		return 0, fmt.Errorf("dml: scanning blocks for mass delete: %w", err)
	}

	var count int64
	for start := 0; start < len(blocks); start += prefetchRequestSize {
		end := start + prefetchRequestSize
		if end > len(blocks) {
			end = len(blocks)
		}
		batch := blocks[start:end]

		aheadEnd := end + pagesInAdvance*prefetchRequestSize
		if aheadEnd > len(blocks) {
			aheadEnd = len(blocks)
		}
		if aheadEnd > end {
			if err := tx.RequestPages(blocks[end:aheadEnd]); err != nil {
				return count, err
			}
		}

		for _, b := range batch {
			page, err := tx.Read(b)
			if err != nil {
				return count, err
			}
			if isZeroed(page.Buffer) {
				continue
			}
			before := make([]byte, len(page.Buffer))
			copy(before, page.Buffer)
			after := make([]byte, len(page.Buffer))
			if _, err := tx.LogWrite(b, 0, before, after, false); err != nil {
				return count, err
			}
			page.Buffer = after
			if err := e.Pool.Write(page); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func isZeroed(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
