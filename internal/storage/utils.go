package storage

func InitStore(path string) (*FileStore, error) {
	store, err := NewFileStore(path)
	if err != nil {
		return nil, err
	}
	return store, nil
}
