package api

const loginMutation = `
mutation Login($email: String!, $password: String!) {
  login(input: { email: $email, password: $password }) {
    access_token
    refresh_token
  }
}`

const signupMutation = `
mutation Signup($input: SignupInput!, $profileImage: Upload) {
  signup(input: $input, profileImage: $profileImage) {
    _id
    name
    email
    role
    profileImageUrl
    points
  }
}`

// 列表接口不请求 teacher.name（后端解析该字段会报错）
const listCoursesQuery = `
query GetAllCourses {
  courses {
    _id
    title
    description
    category
    level
    price
    rating
    students
    certified
    courseImageUrl
    courseImageKey
    teacher {
      _id
    }
    courseVideos {
      _id
      key
      title
      description
      duration
      order
    }
    courseDocuments {
      _id
      key
      title
      description
      order
    }
    createdAt
    updatedAt
  }
}`

const courseDetailsQuery = `
query GetCourseDetails($id: String!) {
  course(id: $id) {
    _id
    title
    description
    category
    level
    price
    rating
    students
    certified
    courseImageUrl
    courseImageKey
    teacher {
      _id
      name
      profileImageUrl
    }
    courseVideos {
      _id
      key
      title
      description
      url
      duration
      order
    }
    courseDocuments {
      _id
      key
      title
      description
      url
      order
    }
    createdAt
    updatedAt
  }
}`

const teacherCoursesQuery = `
query GetTeacherCourses($teacherId: String!) {
  coursesByTeacher(teacherId: $teacherId) {
    _id
    title
    description
    courseImageUrl
    courseImageKey
    category
    price
    rating
    students
  }
}`

const createCourseMutation = `
mutation CreateCourse($input: CreateCourseInput!) {
  createCourse(input: $input) {
    _id
    title
    description
    category
    courseImageUrl
    courseImageKey
  }
}`

const updateCourseMutation = `
mutation UpdateCourse($id: String!, $input: UpdateCourseInput!) {
  updateCourse(id: $id, input: $input) {
    _id
    title
    description
    category
    courseImageUrl
    courseImageKey
  }
}`

const isEnrolledQuery = `
query IsEnrolled($courseId: String!) {
  isEnrolledInCourse(courseId: $courseId)
}`

const courseProgressFields = `
    _id
    userId
    courseId
    completed
    completedAt
    videosProgress {
      videoId
      watchedSeconds
      completed
    }
    createdAt
    updatedAt`

const enrollMutation = `
mutation EnrollInCourse($input: CreateCourseProgressInput!) {
  createCourseProgress(input: $input) {` + courseProgressFields + `
  }
}`

const courseProgressQuery = `
query GetUserCourseProgress($courseId: String!) {
  getUserCourseProgress(courseId: $courseId) {` + courseProgressFields + `
  }
}`

const updateVideoProgressMutation = `
mutation UpdateVideoProgress($input: UpdateVideoProgressInput!) {
  updateVideoProgress(input: $input) {
    videoId
    watchedSeconds
    completed
  }
}`

const markCourseCompletedMutation = `
mutation MarkCourseCompleted($courseId: String!) {
  markCourseCompleted(courseId: $courseId) {` + courseProgressFields + `
  }
}`
