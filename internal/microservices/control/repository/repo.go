package repository

type Repository struct {
	Orders  OrderStoreInterface
	Journal JournalInterface
}

// New wires the in-memory store with a journal; a nil journal disables it.
func New(journal JournalInterface) *Repository {
	if journal == nil {
		journal = NopJournal{}
	}
	return &Repository{
		Orders:  NewOrderStore(),
		Journal: journal,
	}
}
