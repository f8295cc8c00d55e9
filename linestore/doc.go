// Package linestore provides a minimal record store backed by a
// line-delimited file: each line is one independently parseable record.
//
// The file is the state. There is no index and no in-memory cache:
// every read streams the file and every bulk rewrite goes through a
// temporary file that is renamed over the original.
//
// # Store Structure
//
// A Store consists of two files:
//   - the backing file (Path), e.g. "data.jsonl"
//   - a temporary file used while rewriting, derived from Path
//     with atomicfile.TempPath, e.g. "data.tmp.jsonl"
//
// # Basic Usage
//
//	s := &linestore.Store[Item]{
//	    Path:  "./data/items.jsonl",
//	    Codec: linestore.JSONCodec[Item]{},
//	}
//	err := linestore.OpenStore(s)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = s.Append(Item{ID: 1}, Item{ID: 2})
//
//	items, err := s.FindAll(func(it Item) bool { return it.ID > 1 }, true)
//
//	n, err := s.DeleteWhere(func(it Item) bool { return it.ID == 2 })
//
// # Ordering
//
// Every Store owns one Queue. Mutations always wait for previously
// admitted operations to finish. Reads take a wait argument: with
// wait set to false a read starts immediately, possibly concurrently
// with an in-flight write, but later ordered operations still wait
// for it.
//
// The Queue is in-process only. Two Store values pointing at the same
// file are not coordinated, neither are other processes.
//
// # Rewrites
//
// ReplaceAll, DeleteWhere and UpdateFunc stream the backing file into
// the temporary file and, if at least one record changed, rename the
// temporary file over the backing file. If nothing changed the
// temporary file is removed and the backing file is left untouched.
//
// A failed rename is reported as *SwapError. With RemoveBeforeRename
// set the backing file may be missing at that point and the data has
// to be recovered from the temporary file (see Store.RecoverTemp).
package linestore
