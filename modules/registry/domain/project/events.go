package project

type CreatedEvent struct {
	Project *Project
}

type UpdatedEvent struct {
	Project *Project
}
