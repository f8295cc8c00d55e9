/*
Package atomicfile writes files atomically: data goes to a temporary file
next to the destination and is renamed over it only if every write, Sync()
and Close() succeeded.

The temporary file has a fixed name (see TempPath) so that after a crash
the partially written (or fully written, not yet renamed) data can be
found. linestore uses the same naming for its rewrite file.

	func writeToFileAtomically(filePath string, data []byte) error {
		w, err := atomicfile.New(filePath)
		if err != nil {
			return err
		}
		// removes the temp file if we return before Close()
		defer w.RemoveIfNotClosed()

		_, err = w.Write(data)
		if err != nil {
			return err
		}
		return w.Close()
	}

Only one writer for a given destination can be active at a time.
*/
package atomicfile
