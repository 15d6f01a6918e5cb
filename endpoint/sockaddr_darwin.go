package endpoint

// sizeof(sockaddr_un.sun_path)
const maxLocalPath = 104
