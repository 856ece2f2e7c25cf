package sitio

type CreatedEvent struct {
	Sitio *Sitio
}

type UpdatedEvent struct {
	Sitio *Sitio
}
