package event

const EmailJobDestination string = "email.job.send"
const EmailJobConsumerProcessor string = "email.job.processor"
